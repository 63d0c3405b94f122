package grocery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/grocer/internal/model"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Page selects a window of a result set.
type Page struct {
	Skip  int
	Limit int
}

// DefaultPage is the window used when a caller does not ask for one.
var DefaultPage = Page{Skip: 0, Limit: DefaultLimit}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checker accumulates field errors so a request reports all of its problems
// at once.
type checker struct {
	errs ValidationErrors
}

func (c *checker) check(field string, value any, tag string) {
	err := validate.Var(value, tag)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.fail(field, err.Error())
		return
	}
	for _, fe := range verrs {
		c.fail(field, message(fe))
	}
}

func (c *checker) fail(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return "must not be empty"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}

// optional trims s and reports blank values as absent.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (c *checker) optionalString(field string, s *string, max int) *string {
	v := optional(s)
	if v != nil {
		c.check(field, *v, fmt.Sprintf("max=%d", max))
	}
	return v
}

func (c *checker) name(field, s string, max int) string {
	v := strings.TrimSpace(s)
	c.check(field, v, fmt.Sprintf("required,max=%d", max))
	return v
}

func validatePage(p Page) error {
	var c checker
	c.check("skip", p.Skip, "gte=0")
	c.check("limit", p.Limit, fmt.Sprintf("gte=1,lte=%d", MaxLimit))
	return c.err()
}

func normalizeNewList(in model.NewList) (model.NewList, error) {
	var c checker
	out := model.NewList{ListDate: in.ListDate}
	if in.Name != nil {
		name := c.name("name", *in.Name, 200)
		out.Name = &name
	}
	out.Stores = c.optionalString("stores", in.Stores, 500)
	out.Description = c.optionalString("description", in.Description, 1000)
	return out, c.err()
}

func normalizeListPatch(p model.ListPatch) (model.ListPatch, error) {
	var c checker
	out := p
	if p.Name.Set {
		out.Name.Value = c.name("name", p.Name.Value, 200)
	}
	if p.Stores.Set {
		out.Stores.Value = c.optionalString("stores", p.Stores.Value, 500)
	}
	if p.Description.Set {
		out.Description.Value = c.optionalString("description", p.Description.Value, 1000)
	}
	if p.ListDate.Set {
		out.ListDate.Value = utc(p.ListDate.Value)
	}
	if p.IsClosed.Set && p.IsClosed.Null {
		c.fail("is_closed", "must not be null")
	}
	return out, c.err()
}

func normalizeNewItem(in model.NewItem) (model.GroceryItem, error) {
	var c checker
	item := model.GroceryItem{
		Name:      c.name("name", in.Name, 200),
		Quantity:  1,
		Purchased: in.Purchased.Value,
	}
	switch {
	case in.Quantity.Null:
		c.fail("quantity", "must not be null")
	case in.Quantity.Set:
		item.Quantity = in.Quantity.Value
		c.check("quantity", item.Quantity, "gt=0")
	}
	item.Unit = c.optionalString("unit", in.Unit, 50)
	item.Category = c.optionalString("category", in.Category, 100)
	item.Store = c.optionalString("store", in.Store, 100)
	item.Notes = c.optionalString("notes", in.Notes, 500)
	if in.Purchased.Null {
		c.fail("purchased", "must not be null")
	}
	return item, c.err()
}

func normalizeItemPatch(p model.ItemPatch) (model.ItemPatch, error) {
	var c checker
	out := p
	if p.Name.Set {
		out.Name.Value = c.name("name", p.Name.Value, 200)
	}
	if p.Quantity.Set {
		if p.Quantity.Null {
			c.fail("quantity", "must not be null")
		} else {
			c.check("quantity", p.Quantity.Value, "gt=0")
		}
	}
	if p.Unit.Set {
		out.Unit.Value = c.optionalString("unit", p.Unit.Value, 50)
	}
	if p.Category.Set {
		out.Category.Value = c.optionalString("category", p.Category.Value, 100)
	}
	if p.Store.Set {
		out.Store.Value = c.optionalString("store", p.Store.Value, 100)
	}
	if p.Notes.Set {
		out.Notes.Value = c.optionalString("notes", p.Notes.Value, 500)
	}
	if p.Purchased.Set && p.Purchased.Null {
		c.fail("purchased", "must not be null")
	}
	return out, c.err()
}

// normalizeMigration collapses duplicate ids, trims the new list fields and
// checks that exactly one destination is named.
func normalizeMigration(req model.MigrationRequest) (model.MigrationRequest, error) {
	var c checker
	out := model.MigrationRequest{
		ItemIDs:      make([]int64, 0, len(req.ItemIDs)),
		TargetListID: req.TargetListID,
	}

	seen := make(map[int64]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		if !seen[id] {
			seen[id] = true
			out.ItemIDs = append(out.ItemIDs, id)
		}
	}
	c.check("item_ids", out.ItemIDs, "min=1")

	out.NewListName = c.optionalString("new_list_name", req.NewListName, 200)
	out.NewListDescription = c.optionalString("new_list_description", req.NewListDescription, 1000)

	switch {
	case out.NewListName == nil && out.TargetListID == nil:
		c.fail("target_list_id", "one of target_list_id or new_list_name is required")
	case out.NewListName != nil && out.TargetListID != nil:
		c.fail("target_list_id", "only one of target_list_id or new_list_name may be given")
	}
	return out, c.err()
}
