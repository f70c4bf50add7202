package commands

import (
	"context"
	"fmt"

	"github.com/bytebard/go-auth"
)

type DepartmentCmd struct {
	Create    DepartmentCreateCmd    `cmd:"" help:"Create a department."`
	List      DepartmentListCmd      `cmd:"" help:"List departments."`
	Rename    DepartmentRenameCmd    `cmd:"" help:"Rename a department."`
	Delete    DepartmentDeleteCmd    `cmd:"" help:"Delete a department and its memberships."`
	AddMember DepartmentAddMemberCmd `cmd:"" help:"Add a user to a department."`
	Remove    DepartmentRemoveCmd    `cmd:"" help:"Remove a user from a department."`
}

type DepartmentCreateCmd struct {
	Name     string        `arg:"" help:"department name"`
	Database DatabaseFlags `embed:"" prefix:"db-"`
}

func (d *DepartmentCreateCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, closeDB, err := d.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	dept, err := mgr.Departments().Create(ctx, d.Name)
	if err != nil {
		return err
	}

	fmt.Printf("%d\t%s\n", dept.ID, dept.Name)
	return nil
}

type DepartmentListCmd struct {
	Page     int           `help:"page number, zero based" default:"0"`
	Size     int           `help:"page size" default:"50"`
	Database DatabaseFlags `embed:"" prefix:"db-"`
}

func (d *DepartmentListCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, closeDB, err := d.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	list, err := mgr.Departments().List(ctx, auth.NewPage(d.Page, d.Size))
	if err != nil {
		return err
	}

	for _, dept := range list {
		fmt.Printf("%d\t%s\n", dept.ID, dept.Name)
	}
	return nil
}

type DepartmentRenameCmd struct {
	DepartmentID int64         `arg:"" help:"department id"`
	Name         string        `arg:"" help:"new department name"`
	Database     DatabaseFlags `embed:"" prefix:"db-"`
}

func (d *DepartmentRenameCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, closeDB, err := d.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	dept, err := mgr.Departments().Update(ctx, d.DepartmentID, d.Name)
	if err != nil {
		return err
	}

	fmt.Printf("%d\t%s\n", dept.ID, dept.Name)
	return nil
}

type DepartmentDeleteCmd struct {
	DepartmentID int64         `arg:"" help:"department id"`
	Database     DatabaseFlags `embed:"" prefix:"db-"`
}

func (d *DepartmentDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, closeDB, err := d.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	if err := mgr.Departments().Delete(ctx, d.DepartmentID); err != nil {
		return err
	}

	logger := globals.Logger()
	logger.Info().Int64("department_id", d.DepartmentID).Msg("department deleted")
	return nil
}

type DepartmentAddMemberCmd struct {
	DepartmentID int64         `arg:"" help:"department id"`
	UserID       int64         `arg:"" help:"user id"`
	Database     DatabaseFlags `embed:"" prefix:"db-"`
}

func (d *DepartmentAddMemberCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, closeDB, err := d.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	if _, err := mgr.Principals().FindPrincipalByID(ctx, d.UserID); err != nil {
		return err
	}

	if err := mgr.Departments().AddMember(ctx, d.DepartmentID, d.UserID); err != nil {
		return err
	}

	logger := globals.Logger()
	logger.Info().Int64("department_id", d.DepartmentID).Int64("user_id", d.UserID).Msg("member added")
	return nil
}

type DepartmentRemoveCmd struct {
	DepartmentID int64         `arg:"" help:"department id"`
	UserID       int64         `arg:"" help:"user id"`
	Database     DatabaseFlags `embed:"" prefix:"db-"`
}

func (d *DepartmentRemoveCmd) Run(ctx context.Context, globals *Globals) error {
	mgr, closeDB, err := d.Database.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	if err := mgr.Departments().RemoveMember(ctx, d.DepartmentID, d.UserID); err != nil {
		return err
	}

	logger := globals.Logger()
	logger.Info().Int64("department_id", d.DepartmentID).Int64("user_id", d.UserID).Msg("member removed")
	return nil
}
