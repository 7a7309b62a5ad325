package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dispatch-service/internal/model"
	"dispatch-service/internal/notify"
)

// AlertService is the periodic sweep over the fleet: contract end, insurance
// expiry and service-due thresholds within the lookahead window. The
// (vehicle, condition, day) marker row makes repeated sweeps on the same day
// emit nothing new.
type AlertService struct {
	alerts    AlertStore
	publisher notify.Publisher
	lookahead time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewAlertService(alerts AlertStore, publisher notify.Publisher, lookaheadDays int, log zerolog.Logger) *AlertService {
	return &AlertService{
		alerts:    alerts,
		publisher: publisher,
		lookahead: time.Duration(lookaheadDays) * 24 * time.Hour,
		now:       time.Now,
		log:       log,
	}
}

// Sweep scans every non-retired vehicle once and returns how many new alerts
// were issued.
func (s *AlertService) Sweep(ctx context.Context) (int, error) {
	vehicles, err := s.alerts.ActiveVehicles(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	horizon := now.Add(s.lookahead)
	day := now.Format("2006-01-02")
	issued := 0

	for _, vehicle := range vehicles {
		for _, hit := range s.evaluate(vehicle, now, horizon) {
			created, err := s.alerts.RecordAlert(ctx, &model.VehicleAlert{
				VehicleID: vehicle.ID,
				Condition: hit.condition,
				AlertDate: day,
				Detail:    hit.detail,
			})
			if err != nil {
				return issued, err
			}
			if !created {
				continue
			}
			issued++

			vehicleID := vehicle.ID
			event := notify.Event{
				Type:        notify.EventVehicleAlert,
				RecipientID: vehicle.MinistryID,
				VehicleID:   &vehicleID,
				Status:      string(hit.condition),
				Message:     hit.detail,
				OccurredAt:  now,
			}
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.log.Error().Err(err).
					Str("vehicle", vehicle.ID.String()).
					Str("condition", string(hit.condition)).
					Msg("alert publish failed")
			}
		}
	}

	return issued, nil
}

// Run blocks, sweeping once immediately and then on every tick until the
// context is canceled.
func (s *AlertService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if count, err := s.Sweep(ctx); err != nil {
			s.log.Error().Err(err).Msg("alert sweep failed")
		} else if count > 0 {
			s.log.Info().Int("alerts", count).Msg("alert sweep issued notifications")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

type alertHit struct {
	condition model.AlertCondition
	detail    string
}

func (s *AlertService) evaluate(vehicle model.Vehicle, now, horizon time.Time) []alertHit {
	var hits []alertHit

	if vehicle.ContractEndAt != nil && !vehicle.ContractEndAt.After(horizon) {
		hits = append(hits, alertHit{
			condition: model.AlertContractExpiry,
			detail:    fmt.Sprintf("contract for %s ends %s", vehicle.PlateNumber, vehicle.ContractEndAt.Format("2006-01-02")),
		})
	}
	if vehicle.InsuranceExpiresAt != nil && !vehicle.InsuranceExpiresAt.After(horizon) {
		hits = append(hits, alertHit{
			condition: model.AlertInsuranceExpiry,
			detail:    fmt.Sprintf("insurance for %s expires %s", vehicle.PlateNumber, vehicle.InsuranceExpiresAt.Format("2006-01-02")),
		})
	}
	if vehicle.ServiceDue() {
		hits = append(hits, alertHit{
			condition: model.AlertServiceDue,
			detail:    fmt.Sprintf("%s is due for service at %d km (odometer %d)", vehicle.PlateNumber, vehicle.NextServiceOdometer, vehicle.Odometer),
		})
	}

	return hits
}
