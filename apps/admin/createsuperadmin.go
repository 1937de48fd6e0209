package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/shule/core/user"
)

const (
	superAdminName     = "Super Admin"
	superAdminEmail    = "superadmin@email.com"
	superAdminPassword = "superadmin123" // change after first login!
)

// createSuperAdmin seeds the default super admin account. A no-op when an account
// with the default email already exists.
func (cli *commandLine) createSuperAdmin() error {
	ctx := context.Background()

	if _, err := cli.usrRepo.GetUserByEmail(ctx, superAdminEmail); err == nil {
		fmt.Println("Super admin already exists.")
		return nil
	} else if err != user.ErrNotFound {
		return err
	}

	usr := user.User{
		Name:      superAdminName,
		Email:     superAdminEmail,
		Role:      user.RoleSuperAdmin,
		DOB:       "1970-01-01",
		Address:   "Head Office",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(superAdminPassword); err != nil {
		return err
	}
	if _, err := cli.usrRepo.CreateUser(ctx, usr); err != nil {
		return err
	}
	fmt.Println("Default super admin created!")
	return nil
}
