package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
	"github.com/it25102753/Oil-Shope-POS-system/internal/store"
)

const dateLayout = "2006-01-02"

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	// Location decides where "today" and "this month" begin for the dashboard
	// and how date filters are read. Defaults to UTC.
	Location *time.Location
	// EnforceStockFloor rejects sales that would take a product below zero.
	EnforceStockFloor bool
	Now               func() time.Time
}

type Service struct {
	repo              store.Repository
	loc               *time.Location
	enforceStockFloor bool
	now               func() time.Time
}

func New(repo store.Repository, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		repo:              repo,
		loc:               opts.Location,
		enforceStockFloor: opts.EnforceStockFloor,
		now:               opts.Now,
	}
}

// parseDateRange turns inclusive YYYY-MM-DD bounds into a half-open
// [from, to) interval in the service location. Empty bounds stay open.
func (s *Service) parseDateRange(startDate string, endDate string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if start := strings.TrimSpace(startDate); start != "" {
		day, err := time.ParseInLocation(dateLayout, start, s.loc)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: startDate must be YYYY-MM-DD", store.ErrInvalid)
		}
		from = &day
	}
	if end := strings.TrimSpace(endDate); end != "" {
		day, err := time.ParseInLocation(dateLayout, end, s.loc)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: endDate must be YYYY-MM-DD", store.ErrInvalid)
		}
		next := day.AddDate(0, 0, 1)
		to = &next
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, nil, fmt.Errorf("%w: startDate is after endDate", store.ErrInvalid)
	}
	return from, to, nil
}

func actorEmployeeID(ctx context.Context) *int64 {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.EmployeeID < 1 {
		return nil
	}
	id := actor.EmployeeID
	return &id
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID int64, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	log.Printf("[audit] %s by %s(%s) %s/%d %s", action, actor.Username, actor.Role, entityType, entityID, detail)
}
