package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/pin-admin/internal/auth"
	"github.com/sakif/pin-admin/internal/model"
)

// Dashboard fetches the four summary cards concurrently. A card whose call
// fails is left nil and logged; the error is returned only when every card
// failed, which the page renders as its retryable error state.
func (s *Admin) Dashboard(ctx context.Context, sess auth.Session) (model.Dashboard, error) {
	g := s.gw(sess)
	var (
		d  model.Dashboard
		eg errgroup.Group
	)

	eg.Go(func() error {
		v, err := g.NewUsers(ctx)
		if err != nil {
			return s.cardFailed("newUser", err)
		}
		d.NewUsers = &v
		return nil
	})
	eg.Go(func() error {
		v, err := g.NewPins(ctx)
		if err != nil {
			return s.cardFailed("newPin", err)
		}
		d.NewPins = &v
		return nil
	})
	eg.Go(func() error {
		v, err := g.ActiveUsers(ctx)
		if err != nil {
			return s.cardFailed("userActive", err)
		}
		d.ActiveUsers = &v
		return nil
	})
	eg.Go(func() error {
		v, err := g.Interaction(ctx)
		if err != nil {
			return s.cardFailed("rateInteractive", err)
		}
		d.Interaction = &v
		return nil
	})

	err := eg.Wait()
	if err != nil && d.NewUsers == nil && d.NewPins == nil && d.ActiveUsers == nil && d.Interaction == nil {
		return model.Dashboard{}, err
	}
	return d, nil
}

func (s *Admin) cardFailed(card string, err error) error {
	s.logger.Warn("dashboard card unavailable",
		slog.String("card", card),
		slog.String("error", err.Error()),
	)
	return err
}
