package upstream

import (
	"context"
	"fmt"
)

// Companies lists all companies. Admin only.
func (c *Client) Companies(ctx context.Context) ([]Company, error) {
	var out []Company
	if err := c.doJSON(ctx, "companies.list", "GET", "/admin/companies", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCompany creates a company. Admin only.
func (c *Client) CreateCompany(ctx context.Context, p CompanyParams) (Company, error) {
	var out Company
	if err := c.doJSON(ctx, "companies.create", "POST", "/admin/companies", nil, p, &out); err != nil {
		return Company{}, err
	}
	return out, nil
}

// UpdateCompany updates a company. Admin only.
func (c *Client) UpdateCompany(ctx context.Context, id int64, p CompanyParams) (Company, error) {
	var out Company
	if err := c.doJSON(ctx, "companies.update", "PUT", fmt.Sprintf("/admin/companies/%d", id), nil, p, &out); err != nil {
		return Company{}, err
	}
	return out, nil
}

// DeleteCompany removes a company and everything it owns. Admin only.
func (c *Client) DeleteCompany(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "companies.delete", "DELETE", fmt.Sprintf("/admin/companies/%d", id), nil, nil, nil)
}

// AdminUsers lists platform users. Admin only.
func (c *Client) AdminUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.doJSON(ctx, "users.list", "GET", "/admin/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateUser creates a platform user. Admin only.
func (c *Client) CreateUser(ctx context.Context, p UserParams) (User, error) {
	var out User
	if err := c.doJSON(ctx, "users.create", "POST", "/admin/users", nil, p, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// DeleteUser removes a platform user. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "users.delete", "DELETE", fmt.Sprintf("/admin/users/%d", id), nil, nil, nil)
}
