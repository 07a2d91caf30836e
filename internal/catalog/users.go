package catalog

import (
	"context"

	"bookshelf/internal/repo"
	"bookshelf/internal/resource"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const Users = "users"

var UsersTable = repo.Table{
	Name: "tb_users",
	Columns: []repo.Column{
		{Field: "username", Unique: true},
		{Field: "email", Default: repo.Const("")},
		{Field: "password_hash", Default: repo.Const("")},
		{Field: "is_staff", Default: repo.Const(false)},
		{Field: "date_joined", Default: repo.Now},
	},
}

// PasswordCost is the bcrypt cost used for stored password hashes.
var PasswordCost = bcrypt.DefaultCost

// UserSchema declares the user account resource. Passwords are write-only
// and stored as bcrypt hashes. posts, when set, backs the computed
// "post_set" links.
func UserSchema(posts resource.Store) *resource.Schema {
	var computed []resource.ComputedField
	if posts != nil {
		computed = append(computed, resource.ComputedField{Name: "post_set", Func: authoredPosts(posts)})
	}
	return &resource.Schema{
		Name:  Users,
		Label: "user",
		Fields: []resource.Field{
			{Name: "username", Kind: resource.KindString, Required: true, MaxLength: 150, Unique: true, Filterable: true},
			{
				Name:       "email",
				Kind:       resource.KindString,
				AllowBlank: true,
				MaxLength:  254,
				Validators: []resource.Validator{Email},
			},
			{
				Name:      "password",
				Kind:      resource.KindString,
				Required:  true,
				WriteOnly: true,
				Validators: []resource.Validator{
					NotNumeric("Password cannot be entirely numeric."),
					LengthBetween(6, 20),
				},
			},
			{Name: "is_staff", Kind: resource.KindBool, ReadOnly: true},
			{Name: "date_joined", Kind: resource.KindDateTime, ReadOnly: true},
		},
		Computed:       computed,
		IdentityLink:   true,
		OrderingFields: []string{"username", "date_joined"},
		Validate:       passwordDiffersFromUsername,
		BeforeSave:     hashPassword,
	}
}

func passwordDiffersFromUsername(_ context.Context, attrs, existing resource.Attrs) error {
	password, ok := attrs["password"].(string)
	if !ok {
		return nil
	}
	username, ok := attrs["username"].(string)
	if !ok {
		username, _ = existing["username"].(string)
	}
	if password == username {
		return resource.FieldError("password", "The password is too similar to the username.")
	}
	return nil
}

func hashPassword(_ context.Context, _ resource.Request, attrs resource.Attrs, _ resource.Mode) error {
	password, ok := attrs["password"].(string)
	if !ok {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	delete(attrs, "password")
	attrs["password_hash"] = string(hash)
	return nil
}

func authoredPosts(posts resource.Store) func(context.Context, resource.Request, resource.Attrs) (any, error) {
	return func(ctx context.Context, req resource.Request, user resource.Attrs) (any, error) {
		list, _, err := posts.List(ctx, resource.Query{
			Filters:  map[string]any{"author": user.ID()},
			Ordering: []resource.Order{{Field: "id"}},
		})
		if err != nil {
			return nil, err
		}
		links := make([]string, 0, len(list))
		for _, p := range list {
			links = append(links, resource.Link(req.BaseURL, Posts, p.ID()))
		}
		return links, nil
	}
}
