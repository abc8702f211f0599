package tui

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/smarteletron/eletron/internal/listing"
	"github.com/smarteletron/eletron/internal/routes"
	"github.com/smarteletron/eletron/pkg/client"
	"github.com/smarteletron/eletron/pkg/domain"
)

var errRequired = errors.New("required")

var yesNo = []string{"yes", "no"}

func yesNoOf(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func idString(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func required(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errRequired
	}
	return s, nil
}

// pageFactory builds the page for a route.
type pageFactory struct {
	client   *client.Client
	pageSize int
	log      *zerolog.Logger
}

func (f pageFactory) build(key string) (page, bool) {
	switch key {
	case routes.Dashboard:
		return newDashboardModel(f.client), true
	case routes.Sales:
		return newListPage(salesSpec(f)), true
	case routes.Users:
		return newListPage(usersSpec(f)), true
	case routes.Roles:
		return newListPage(rolesSpec(f)), true
	case routes.Stores:
		return newListPage(storesSpec(f)), true
	case routes.Operations:
		return newListPage(operationsSpec(f)), true
	case routes.EventOrigins:
		return newListPage(eventOriginsSpec(f)), true
	case routes.Notifications:
		return newListPage(notifiersSpec(f)), true
	case routes.Products:
		return newListPage(productsSpec(f)), true
	}
	return nil, false
}

func usersSpec(f pageFactory) listSpec[domain.User] {
	c := f.client
	return listSpec[domain.User]{
		title: "user",
		columns: []column[domain.User]{
			{title: "ID", width: 6, value: func(u domain.User) string { return idString(u.ID) }},
			{title: "Username", sort: "username", width: 16, value: func(u domain.User) string { return u.Username }},
			{title: "Name", sort: "name", width: 24, value: func(u domain.User) string { return u.Name }},
			{title: "Email", sort: "email", width: 26, value: func(u domain.User) string { return u.Email }},
			{title: "Store", sort: "storeCode", width: 6, value: func(u domain.User) string { return u.StoreCode }},
			{title: "Roles", width: 18, value: func(u domain.User) string { return strings.Join(u.Roles, ",") }},
			{title: "Active", width: 6, value: func(u domain.User) string { return yesNoOf(u.Active) }},
		},
		filters: []filterField{
			{key: "username", label: "username"},
			{key: "name", label: "name"},
			{key: "role", label: "role"},
			{key: "active", label: "active"},
		},
		fields: []formField[domain.User]{
			{key: "username", label: "username",
				get: func(u domain.User) string { return u.Username },
				set: func(u *domain.User, v string) (err error) { u.Username, err = required(v); return err }},
			{key: "name", label: "name",
				get: func(u domain.User) string { return u.Name },
				set: func(u *domain.User, v string) (err error) { u.Name, err = required(v); return err }},
			{key: "email", label: "email",
				get: func(u domain.User) string { return u.Email },
				set: func(u *domain.User, v string) error {
					v = strings.TrimSpace(v)
					if v != "" {
						if _, err := mail.ParseAddress(v); err != nil {
							return errors.New("invalid address")
						}
					}
					u.Email = v
					return nil
				}},
			{key: "storeCode", label: "store",
				get: func(u domain.User) string { return u.StoreCode },
				set: func(u *domain.User, v string) error { u.StoreCode = strings.TrimSpace(v); return nil }},
			{key: "roles", label: "roles",
				get: func(u domain.User) string { return strings.Join(u.Roles, ", ") },
				set: func(u *domain.User, v string) error { u.Roles = splitList(v); return nil }},
			{key: "active", label: "active", options: yesNo,
				get: func(u domain.User) string { return yesNoOf(u.Active || u.ID == 0) },
				set: func(u *domain.User, v string) (err error) { u.Active, err = parseBool(v); return err }},
			{key: "password", label: "password", secret: true,
				set: func(u *domain.User, v string) error {
					if v == "" && u.ID == 0 {
						return errRequired
					}
					u.Password = v
					return nil
				}},
		},
		idOf: func(u domain.User) string { return idString(u.ID) },
		config: listing.Config[domain.User]{
			Search:    c.ListUsers,
			Create:    c.CreateUser,
			Update:    c.UpdateUser,
			Delete:    c.DeleteUser,
			PageSize:  f.pageSize,
			SortField: "name",
			Logger:    f.log,
		},
		suggest: map[string]func(context.Context) ([]string, error){
			"roles": func(ctx context.Context) ([]string, error) {
				res, err := c.ListRoles(ctx, domain.PageRequest{Size: 100, SortBy: "name"})
				if err != nil {
					return nil, err
				}
				names := make([]string, len(res.Items))
				for i, r := range res.Items {
					names[i] = r.Name
				}
				return names, nil
			},
		},
	}
}

func rolesSpec(f pageFactory) listSpec[domain.Role] {
	c := f.client
	return listSpec[domain.Role]{
		title: "role",
		columns: []column[domain.Role]{
			{title: "ID", width: 6, value: func(r domain.Role) string { return idString(r.ID) }},
			{title: "Name", sort: "name", width: 20, value: func(r domain.Role) string { return r.Name }},
			{title: "Description", width: 36, value: func(r domain.Role) string { return r.Description }},
			{title: "Permissions", width: 11, value: func(r domain.Role) string { return strconv.Itoa(len(r.Permissions)) }},
		},
		filters: []filterField{{key: "name", label: "name"}},
		fields: []formField[domain.Role]{
			{key: "name", label: "name",
				get: func(r domain.Role) string { return r.Name },
				set: func(r *domain.Role, v string) (err error) { r.Name, err = required(strings.ToUpper(v)); return err }},
			{key: "description", label: "description",
				get: func(r domain.Role) string { return r.Description },
				set: func(r *domain.Role, v string) error { r.Description = strings.TrimSpace(v); return nil }},
			{key: "permissions", label: "permissions",
				get: func(r domain.Role) string { return strings.Join(r.Permissions, ", ") },
				set: func(r *domain.Role, v string) error { r.Permissions = splitList(v); return nil }},
		},
		idOf: func(r domain.Role) string { return idString(r.ID) },
		config: listing.Config[domain.Role]{
			Search:    c.ListRoles,
			Create:    c.CreateRole,
			Update:    c.UpdateRole,
			Delete:    c.DeleteRole,
			PageSize:  f.pageSize,
			SortField: "name",
			Logger:    f.log,
		},
		suggest: map[string]func(context.Context) ([]string, error){
			"permissions": func(ctx context.Context) ([]string, error) {
				perms, err := c.ListPermissions(ctx)
				if err != nil {
					return nil, err
				}
				names := make([]string, len(perms))
				for i, p := range perms {
					names[i] = p.Name
				}
				return names, nil
			},
		},
	}
}

func storesSpec(f pageFactory) listSpec[domain.Store] {
	c := f.client
	return listSpec[domain.Store]{
		title: "store",
		columns: []column[domain.Store]{
			{title: "Code", sort: "code", width: 6, value: func(s domain.Store) string { return s.Code }},
			{title: "Name", sort: "name", width: 26, value: func(s domain.Store) string { return s.Name }},
			{title: "Document", width: 18, value: func(s domain.Store) string { return s.Document }},
			{title: "City", sort: "city", width: 18, value: func(s domain.Store) string { return s.City }},
			{title: "UF", width: 2, value: func(s domain.Store) string { return s.State }},
			{title: "Active", width: 6, value: func(s domain.Store) string { return yesNoOf(s.Active) }},
		},
		filters: []filterField{
			{key: "code", label: "code"},
			{key: "name", label: "name"},
			{key: "city", label: "city"},
			{key: "active", label: "active"},
		},
		fields: []formField[domain.Store]{
			{key: "code", label: "code",
				get: func(s domain.Store) string { return s.Code },
				set: func(s *domain.Store, v string) (err error) { s.Code, err = required(v); return err }},
			{key: "name", label: "name",
				get: func(s domain.Store) string { return s.Name },
				set: func(s *domain.Store, v string) (err error) { s.Name, err = required(v); return err }},
			{key: "document", label: "document",
				get: func(s domain.Store) string { return s.Document },
				set: func(s *domain.Store, v string) error { s.Document = strings.TrimSpace(v); return nil }},
			{key: "city", label: "city",
				get: func(s domain.Store) string { return s.City },
				set: func(s *domain.Store, v string) error { s.City = strings.TrimSpace(v); return nil }},
			{key: "state", label: "state",
				get: func(s domain.Store) string { return s.State },
				set: func(s *domain.Store, v string) error {
					v = strings.ToUpper(strings.TrimSpace(v))
					if v != "" && len(v) != 2 {
						return errors.New("use the two-letter code")
					}
					s.State = v
					return nil
				}},
			{key: "active", label: "active", options: yesNo,
				get: func(s domain.Store) string { return yesNoOf(s.Active || s.ID == 0) },
				set: func(s *domain.Store, v string) (err error) { s.Active, err = parseBool(v); return err }},
		},
		idOf: func(s domain.Store) string { return idString(s.ID) },
		config: listing.Config[domain.Store]{
			Search:    c.ListStores,
			Create:    c.CreateStore,
			Update:    c.UpdateStore,
			Delete:    c.DeleteStore,
			PageSize:  f.pageSize,
			SortField: "code",
			Logger:    f.log,
		},
	}
}

func operationsSpec(f pageFactory) listSpec[domain.Operation] {
	c := f.client
	return listSpec[domain.Operation]{
		title: "operation",
		columns: []column[domain.Operation]{
			{title: "Code", sort: "code", width: 6, value: func(o domain.Operation) string { return o.Code }},
			{title: "Description", sort: "description", width: 36, value: func(o domain.Operation) string { return o.Description }},
			{title: "Type", sort: "type", width: 10, value: func(o domain.Operation) string { return o.Type }},
			{title: "Active", width: 6, value: func(o domain.Operation) string { return yesNoOf(o.Active) }},
		},
		filters: []filterField{
			{key: "code", label: "code"},
			{key: "description", label: "description"},
			{key: "type", label: "type"},
		},
		fields: []formField[domain.Operation]{
			{key: "code", label: "code",
				get: func(o domain.Operation) string { return o.Code },
				set: func(o *domain.Operation, v string) (err error) { o.Code, err = required(v); return err }},
			{key: "description", label: "description",
				get: func(o domain.Operation) string { return o.Description },
				set: func(o *domain.Operation, v string) (err error) { o.Description, err = required(v); return err }},
			{key: "type", label: "type", options: domain.OperationTypes,
				get: func(o domain.Operation) string { return o.Type },
				set: func(o *domain.Operation, v string) error {
					if !domain.ValidOperationType(v) {
						return fmt.Errorf("choose one of %s", strings.Join(domain.OperationTypes, ", "))
					}
					o.Type = v
					return nil
				}},
			{key: "active", label: "active", options: yesNo,
				get: func(o domain.Operation) string { return yesNoOf(o.Active || o.ID == 0) },
				set: func(o *domain.Operation, v string) (err error) { o.Active, err = parseBool(v); return err }},
		},
		idOf: func(o domain.Operation) string { return idString(o.ID) },
		config: listing.Config[domain.Operation]{
			Search:    c.ListOperations,
			Create:    c.CreateOperation,
			Update:    c.UpdateOperation,
			Delete:    c.DeleteOperation,
			PageSize:  f.pageSize,
			SortField: "code",
			Logger:    f.log,
		},
	}
}

func eventOriginsSpec(f pageFactory) listSpec[domain.EventOrigin] {
	c := f.client
	return listSpec[domain.EventOrigin]{
		title: "event origin",
		columns: []column[domain.EventOrigin]{
			{title: "Code", sort: "code", width: 12, value: func(e domain.EventOrigin) string { return e.Code }},
			{title: "Description", sort: "description", width: 40, value: func(e domain.EventOrigin) string { return e.Description }},
			{title: "Active", width: 6, value: func(e domain.EventOrigin) string { return yesNoOf(e.Active) }},
		},
		filters: []filterField{
			{key: "code", label: "code"},
			{key: "description", label: "description"},
		},
		fields: []formField[domain.EventOrigin]{
			{key: "code", label: "code",
				get: func(e domain.EventOrigin) string { return e.Code },
				set: func(e *domain.EventOrigin, v string) (err error) { e.Code, err = required(strings.ToUpper(v)); return err }},
			{key: "description", label: "description",
				get: func(e domain.EventOrigin) string { return e.Description },
				set: func(e *domain.EventOrigin, v string) (err error) { e.Description, err = required(v); return err }},
			{key: "active", label: "active", options: yesNo,
				get: func(e domain.EventOrigin) string { return yesNoOf(e.Active || e.ID == 0) },
				set: func(e *domain.EventOrigin, v string) (err error) { e.Active, err = parseBool(v); return err }},
		},
		idOf: func(e domain.EventOrigin) string { return idString(e.ID) },
		config: listing.Config[domain.EventOrigin]{
			Search:    c.ListEventOrigins,
			Create:    c.CreateEventOrigin,
			Update:    c.UpdateEventOrigin,
			PageSize:  f.pageSize,
			SortField: "code",
			Logger:    f.log,
		},
	}
}

func notifiersSpec(f pageFactory) listSpec[domain.EmailNotifier] {
	c := f.client
	return listSpec[domain.EmailNotifier]{
		title: "notifier",
		columns: []column[domain.EmailNotifier]{
			{title: "ID", width: 6, value: func(n domain.EmailNotifier) string { return idString(n.ID) }},
			{title: "Name", sort: "name", width: 22, value: func(n domain.EmailNotifier) string { return n.Name }},
			{title: "Email", sort: "email", width: 28, value: func(n domain.EmailNotifier) string { return n.Email }},
			{title: "Origins", width: 20, value: func(n domain.EmailNotifier) string { return strings.Join(n.Origins, ",") }},
			{title: "Active", width: 6, value: func(n domain.EmailNotifier) string { return yesNoOf(n.Active) }},
		},
		filters: []filterField{
			{key: "email", label: "email"},
			{key: "origin", label: "origin"},
		},
		fields: []formField[domain.EmailNotifier]{
			{key: "name", label: "name",
				get: func(n domain.EmailNotifier) string { return n.Name },
				set: func(n *domain.EmailNotifier, v string) (err error) { n.Name, err = required(v); return err }},
			{key: "email", label: "email",
				get: func(n domain.EmailNotifier) string { return n.Email },
				set: func(n *domain.EmailNotifier, v string) error {
					addr, err := mail.ParseAddress(strings.TrimSpace(v))
					if err != nil {
						return errors.New("invalid address")
					}
					n.Email = addr.Address
					return nil
				}},
			{key: "origins", label: "origins",
				get: func(n domain.EmailNotifier) string { return strings.Join(n.Origins, ", ") },
				set: func(n *domain.EmailNotifier, v string) error { n.Origins = splitList(strings.ToUpper(v)); return nil }},
			{key: "active", label: "active", options: yesNo,
				get: func(n domain.EmailNotifier) string { return yesNoOf(n.Active || n.ID == 0) },
				set: func(n *domain.EmailNotifier, v string) (err error) { n.Active, err = parseBool(v); return err }},
		},
		idOf: func(n domain.EmailNotifier) string { return idString(n.ID) },
		config: listing.Config[domain.EmailNotifier]{
			Search:    c.ListEmailNotifiers,
			Create:    c.CreateEmailNotifier,
			Update:    c.UpdateEmailNotifier,
			Delete:    c.DeleteEmailNotifier,
			PageSize:  f.pageSize,
			SortField: "name",
			Logger:    f.log,
		},
		suggest: map[string]func(context.Context) ([]string, error){
			"origins": func(ctx context.Context) ([]string, error) {
				res, err := c.ListEventOrigins(ctx, domain.PageRequest{Size: 100, SortBy: "code"})
				if err != nil {
					return nil, err
				}
				codes := make([]string, len(res.Items))
				for i, e := range res.Items {
					codes[i] = e.Code
				}
				return codes, nil
			},
		},
	}
}

func salesSpec(f pageFactory) listSpec[domain.Sale] {
	c := f.client
	return listSpec[domain.Sale]{
		title: "sale",
		columns: []column[domain.Sale]{
			{title: "Issued", sort: "issuedAt", width: 16, value: func(s domain.Sale) string { return s.IssuedAt.Format("2006-01-02 15:04") }},
			{title: "Store", sort: "storeCode", width: 6, value: func(s domain.Sale) string { return s.StoreCode }},
			{title: "Op", sort: "operationCode", width: 6, value: func(s domain.Sale) string { return s.OperationCode }},
			{title: "Document", width: 12, value: func(s domain.Sale) string { return s.DocumentNumber }},
			{title: "Seller", width: 16, value: func(s domain.Sale) string { return s.Seller }},
			{title: "Total", sort: "total", width: 14, value: func(s domain.Sale) string { return fmt.Sprintf("%14s", formatMoney(s.Total)) }},
		},
		filters: []filterField{
			{key: "storeCode", label: "store"},
			{key: "operationCode", label: "operation"},
			{key: "from", label: "from"},
			{key: "to", label: "to"},
		},
		idOf: func(s domain.Sale) string { return idString(s.ID) },
		config: listing.Config[domain.Sale]{
			Search:        c.ListSales,
			PageSize:      f.pageSize,
			SortField:     "issuedAt",
			SortDirection: domain.SortDesc,
			Logger:        f.log,
		},
	}
}

func productsSpec(f pageFactory) listSpec[domain.Product] {
	c := f.client
	return listSpec[domain.Product]{
		title: "product",
		columns: []column[domain.Product]{
			{title: "Code", sort: "code", width: 10, value: func(p domain.Product) string { return p.Code }},
			{title: "Description", sort: "description", width: 34, value: func(p domain.Product) string { return p.Description }},
			{title: "Brand", sort: "brand", width: 14, value: func(p domain.Product) string { return p.Brand }},
			{title: "Unit", width: 4, value: func(p domain.Product) string { return p.Unit }},
			{title: "Price", sort: "price", width: 12, value: func(p domain.Product) string { return fmt.Sprintf("%12s", formatMoney(p.Price)) }},
			{title: "Stock", width: 8, value: func(p domain.Product) string { return strconv.FormatFloat(p.Stock, 'f', -1, 64) }},
		},
		filters: []filterField{
			{key: "code", label: "code"},
			{key: "description", label: "description"},
			{key: "brand", label: "brand"},
		},
		idOf: func(p domain.Product) string { return p.Code },
		config: listing.Config[domain.Product]{
			Search:    c.ListProducts,
			PageSize:  f.pageSize,
			SortField: "description",
			Logger:    f.log,
		},
	}
}
