package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edusync/backend/internal/domain/records"
	"github.com/edusync/backend/internal/domain/shared"
	syncdomain "github.com/edusync/backend/internal/domain/sync"
	"github.com/edusync/backend/internal/infrastructure/telemetry"
)

// Orchestrator runs reconciliation passes against the partner system and
// records every pass in the audit trail. Entity passes always run in
// dependency order; a failed pass never aborts the ones after it.
type Orchestrator struct {
	gateway     syncdomain.PartnerGateway
	tm          shared.TransactionManager
	courses     records.CourseRepository
	classes     records.ClassRepository
	students    records.StudentRepository
	enrollments records.EnrollmentRepository
	audit       syncdomain.AuditRepository
	logger      *zap.Logger
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	gateway syncdomain.PartnerGateway,
	tm shared.TransactionManager,
	courses records.CourseRepository,
	classes records.ClassRepository,
	students records.StudentRepository,
	enrollments records.EnrollmentRepository,
	audit syncdomain.AuditRepository,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		gateway:     gateway,
		tm:          tm,
		courses:     courses,
		classes:     classes,
		students:    students,
		enrollments: enrollments,
		audit:       audit,
		logger:      logger,
	}
}

// runEntity dispatches one reconciliation pass for the given entity type.
// A panic inside a pass is contained here so the remaining passes of a full
// run still execute.
func (o *Orchestrator) runEntity(ctx context.Context, entity syncdomain.EntityType, window *Window) (result syncdomain.Result) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", string(entity))
	defer func() {
		telemetry.SetAttributes(span,
			telemetry.SpanAttrEntity, string(entity),
			telemetry.SpanAttrProcessed, result.TotalProcessed,
			telemetry.SpanAttrInserted, result.Inserted,
			telemetry.SpanAttrUpdated, result.Updated,
			telemetry.SpanAttrDeleted, result.Deleted,
			telemetry.SpanAttrErrors, len(result.Errors),
		)
		if !result.Success && len(result.Errors) > 0 {
			telemetry.RecordError(span, fmt.Errorf("%s", result.Errors[len(result.Errors)-1]))
		}
		span.End()
	}()

	defer func() {
		if rec := recover(); rec != nil {
			r := syncdomain.NewResult(entity)
			r.Fail(fmt.Errorf("panic during %s reconciliation: %v", entity, rec))
			r.Finish()
			o.logger.Error("reconciliation panicked",
				zap.String("entity", string(entity)),
				zap.Any("panic", rec),
			)
			result = *r
		}
	}()

	switch entity {
	case syncdomain.EntityCourse:
		return reconcile(ctx, o.tm, &courseTarget{gateway: o.gateway, courses: o.courses}, window, o.logger)
	case syncdomain.EntityClass:
		return reconcile(ctx, o.tm, &classTarget{gateway: o.gateway, classes: o.classes, courses: o.courses}, window, o.logger)
	case syncdomain.EntityStudent:
		return reconcile(ctx, o.tm, &studentTarget{gateway: o.gateway, students: o.students}, window, o.logger)
	case syncdomain.EntityEnrollment:
		return reconcile(ctx, o.tm, &enrollmentTarget{gateway: o.gateway, enrollments: o.enrollments, students: o.students, classes: o.classes}, window, o.logger)
	default:
		r := syncdomain.NewResult(entity)
		r.Fail(fmt.Errorf("unknown entity type %q", entity))
		r.Finish()
		return *r
	}
}

// writeAudit records a pass in the audit trail. Audit persistence never
// fails a sync; a write error is logged and the result returned unchanged.
func (o *Orchestrator) writeAudit(ctx context.Context, operation string, result syncdomain.Result) {
	entry := syncdomain.NewAuditEntry(operation, result)
	if err := o.audit.Append(ctx, entry); err != nil {
		o.logger.Error("audit write failed",
			zap.String("entity", string(result.Entity)),
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// SyncAll reconciles every entity type in dependency order and returns the
// aggregate result. Each stage runs to completion regardless of earlier
// stage failures.
func (o *Orchestrator) SyncAll(ctx context.Context) syncdomain.Result {
	o.logger.Info("full sync started")

	results := make([]syncdomain.Result, 0, len(syncdomain.AllEntityTypes()))
	for _, entity := range syncdomain.AllEntityTypes() {
		result := o.runEntity(ctx, entity, nil)
		o.writeAudit(ctx, syncdomain.OperationSyncAll, result)
		results = append(results, result)
	}

	agg := syncdomain.Aggregate(results...)
	o.writeAudit(ctx, syncdomain.OperationSyncAll, agg)
	o.logger.Info("full sync finished",
		zap.Bool("success", agg.Success),
		zap.Int("processed", agg.TotalProcessed),
		zap.Int("errors", len(agg.Errors)),
	)
	return agg
}

// SyncEntity reconciles a single entity type
func (o *Orchestrator) SyncEntity(ctx context.Context, entity syncdomain.EntityType) syncdomain.Result {
	result := o.runEntity(ctx, entity, nil)
	o.writeAudit(ctx, syncdomain.OperationSync, result)
	return result
}

// SyncByDateRange reconciles a single entity type against the partner
// records updated inside the window. Absent records are not deactivated:
// the window yields only a slice of the remote set.
func (o *Orchestrator) SyncByDateRange(ctx context.Context, entity syncdomain.EntityType, from, to time.Time) (syncdomain.Result, error) {
	window := &Window{From: from, To: to}
	if err := window.Validate(); err != nil {
		return syncdomain.Result{}, err
	}

	result := o.runEntity(ctx, entity, window)
	o.writeAudit(ctx, syncdomain.OperationSyncRange, result)
	return result, nil
}
