package services

import (
	"context"
	"fmt"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/platform/obs"
	"waste-dispatch-service/internal/ports"
)

func driverByLogin(ctx context.Context, repos ports.Repositories, login string) (domain.User, error) {
	user, err := repos.Users().FindByLogin(ctx, login)
	if err != nil {
		return domain.User{}, err
	}
	if err := user.RequireDriver(); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// OpenShift starts an on-duty window for the driver.
func (d *Dispatcher) OpenShift(ctx context.Context, login string, vehicleID *int64) (shift domain.Shift, err error) {
	defer obs.Time(ctx, "shifts.open")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		driver, err := driverByLogin(ctx, repos, login)
		if err != nil {
			return err
		}

		if _, open, err := repos.Shifts().FindOpenShift(ctx, driver.ID); err != nil {
			return fmt.Errorf("open shift: %w", err)
		} else if open {
			return domain.ErrShiftAlreadyOpen
		}

		shift = domain.Shift{
			DriverID:  driver.ID,
			VehicleID: vehicleID,
			OpenedAt:  d.now(),
			Status:    domain.ShiftOpen,
		}
		return repos.Shifts().Create(ctx, &shift)
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return shift, nil
}

// CloseShift ends the driver's open shift.
func (d *Dispatcher) CloseShift(ctx context.Context, login string) (shift domain.Shift, err error) {
	defer obs.Time(ctx, "shifts.close")(&err)

	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		driver, err := driverByLogin(ctx, repos, login)
		if err != nil {
			return err
		}

		var open bool
		shift, open, err = repos.Shifts().FindOpenShift(ctx, driver.ID)
		if err != nil {
			return fmt.Errorf("close shift: %w", err)
		}
		if !open {
			return domain.NotFound("open shift for driver", login)
		}

		if err := shift.Close(d.now()); err != nil {
			return err
		}
		return repos.Shifts().Update(ctx, shift)
	})
	if err != nil {
		return domain.Shift{}, err
	}
	return shift, nil
}

// CurrentShift returns the driver's open shift; ok is false when off duty.
func (d *Dispatcher) CurrentShift(ctx context.Context, login string) (shift domain.Shift, ok bool, err error) {
	err = d.uow.WithinTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		driver, err := driverByLogin(ctx, repos, login)
		if err != nil {
			return err
		}
		shift, ok, err = repos.Shifts().FindOpenShift(ctx, driver.ID)
		return err
	})
	return shift, ok, err
}
