package service

import (
	"errors"
	"fmt"
	"math"

	"staffquote/internal/domain"
	"staffquote/internal/ports"
)

type Service struct {
	repo        ports.Repository
	telemetry   ports.Telemetry
	importer    ports.ImportExport
	holidays    domain.HolidaySet
	calendar    domain.Calendar
	hoursPerDay float64
}

type Option func(*Service)

// WithHoursPerDay sets the working day length used for available hours.
func WithHoursPerDay(hours float64) Option {
	return func(s *Service) {
		s.hoursPerDay = hours
	}
}

// New wires the service. holidays may be nil, in which case only weekends
// are non-working days.
func New(repo ports.Repository, telemetry ports.Telemetry, importer ports.ImportExport, holidays domain.HolidaySet, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("new service: repository is nil")
	}
	if telemetry == nil {
		return nil, fmt.Errorf("new service: telemetry is nil")
	}
	if importer == nil {
		return nil, fmt.Errorf("new service: import/export is nil")
	}

	svc := &Service{
		repo:        repo,
		telemetry:   telemetry,
		importer:    importer,
		holidays:    holidays,
		calendar:    domain.NewCalendar(holidays),
		hoursPerDay: domain.DefaultHoursPerDay,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.hoursPerDay <= 0 || svc.hoursPerDay > 24 || math.IsNaN(svc.hoursPerDay) {
		return nil, fmt.Errorf("new service: hours per day %v out of range", svc.hoursPerDay)
	}
	return svc, nil
}

func (s *Service) HoursPerDay() float64 {
	return s.hoursPerDay
}

func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

func IsConflictError(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}
