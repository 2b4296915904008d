// Package repository implements gorm-backed persistence for the storefront.
package repository

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrPackageNotFound     = errors.New("package not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPriceNotFound       = errors.New("no price history")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrSettingNotFound     = errors.New("setting not found")
	ErrDuplicatePaymentID  = errors.New("payment id already attached to another transaction")
)

// Page describes a 1-based page of results.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (p Page) normalized() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

func (p Page) Offset() int {
	n := p.normalized()
	return (n.Page - 1) * n.Limit
}

func (p Page) Size() int {
	return p.normalized().Limit
}

func (p Page) Number() int {
	return p.normalized().Page
}
