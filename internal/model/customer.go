// Package model defines the core data structures for the contaflow application.
package model

import (
	"fmt"
	"time"
)

// Customer holds a billing customer mirrored from the payment platform.
type Customer struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Name          string
	CpfCnpj       string
	Email         string
	Phone         string
	MobilePhone   string
	Address       string
	AddressNumber string
	Complement    string
	Province      string
	PostalCode    string
	Notes         string
	AsaasID       string
	ID            int64
	Synced        bool
}

// String renders the customer for lists and log lines.
func (c *Customer) String() string {
	return fmt.Sprintf("%s - %s", c.Name, c.CpfCnpj)
}

// IsCompany reports whether the document looks like a CNPJ rather than a CPF.
// CNPJ documents carry a "/" separator when formatted (00.000.000/0001-00).
func (c *Customer) IsCompany() bool {
	for _, r := range c.CpfCnpj {
		if r == '/' {
			return true
		}
	}
	return false
}
