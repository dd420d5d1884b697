package service

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
)

// StartTemplateRefresh reloads the template cache on a crontab
// schedule, so a published template revision reaches running
// instances without a restart.  Runs until the context is canceled.
func (s *Service) StartTemplateRefresh(ctx context.Context, cronSpec string) error {
	expr, err := cronexpr.Parse(cronSpec)
	if err != nil {
		return err
	}

	go func() {
		for {
			next := expr.Next(time.Now())
			if next.IsZero() {
				return
			}
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if err := s.Templates.Refresh(ctx); err != nil {
				log.Printf("service: template refresh: %v", err)
			} else {
				s.logf("StartTemplateRefresh reloaded templates")
			}
		}
	}()

	return nil
}
