package main

import (
	"github.com/Fernando88323/PortalDocente-sub001/core"
	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

// addDocente creates (or re-activates) a portal account for a docente.
func (cli *commandLine) addDocente(uname, email, pwd string, refID int, isDecano, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	roles := user.DocenteRoles
	if isDecano {
		roles = append(roles, user.DecanoRoles...)
	}
	if isAdmin {
		roles = user.AllRoles
	}

	usr, err := cli.usrSvc.GetByUsernameOrEmail(uname)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		_, err = cli.usrSvc.Create(user.NewUser{
			Name:            uname,
			Username:        uname,
			Email:           email,
			RefID:           refID,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		})
		return err
	}

	usr.Roles = roles
	usr.RefID = refID
	if _, err = cli.usrSvc.SetPassword(usr, pwd); err != nil {
		return err
	}
	return nil
}
