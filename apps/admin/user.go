package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// addUser updates or creates an active user.User; flags left empty keep the existing values.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	usr := user.User{
		Name:     core.CleanString(name),
		Username: core.CleanString(uname, true /* lower */),
		Email:    core.CleanString(email, true /* lower */),
		IsActive: true,
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}

	for _, key := range []string{usr.Username, usr.Email} {
		if key == "" {
			continue
		}
		existing, err := cli.svcs.User.GetByUsernameOrEmail(ctx, key)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				continue
			}
			return err
		}
		if usr.Username == "" {
			usr.Username = existing.Username
		}
		if usr.Email == "" {
			usr.Email = existing.Email
		}
		if !isAdmin {
			usr.Roles = existing.Roles
		}
		break
	}
	if usr.Username == "" {
		usr.Username = usr.Email
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	usr, err := cli.svcs.User.UpdateOrCreate(ctx, usr)
	if err != nil {
		return err
	}
	cli.logger.Info(fmt.Sprintf("user %q saved", usr.Username), usr)
	return nil
}

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.svcs.User.ResetPassword(context.Background(), core.CleanString(uname, true /* lower */), pwd)
	if err != nil {
		return err
	}
	cli.logger.Info(fmt.Sprintf("password of %q reset", usr.Username), usr)
	return nil
}
