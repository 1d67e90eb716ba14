package model

import (
	"fmt"
	"strings"
)

// Role identifies the kind of actor operating on a shipment.
type Role string

const (
	RoleShipper   Role = "SHIPPER"
	RoleLogistics Role = "LOGISTICS"
	RoleWarehouse Role = "WAREHOUSE"
	RoleCustoms   Role = "CUSTOMS"
	RoleBuyer     Role = "BUYER"
)

// Capability is a permission a role grants on shipment operations.
type Capability string

const (
	CapCreateShipment   Capability = "create_shipment"
	CapUpdateStatus     Capability = "update_status"
	CapUploadDocument   Capability = "upload_document"
	CapConfirmDelivery  Capability = "confirm_delivery"
	CapRaiseDispute     Capability = "raise_dispute"
	CapCustomsClearance Capability = "customs_clearance"
	CapTriggerPayment   Capability = "trigger_payment"
)

// roleCapabilities is the closed authorization table. Authorization is
// capability membership, never type identity of the actor.
var roleCapabilities = map[Role][]Capability{
	RoleShipper:   {CapCreateShipment, CapUpdateStatus, CapUploadDocument},
	RoleLogistics: {CapUpdateStatus, CapUploadDocument, CapConfirmDelivery},
	RoleWarehouse: {CapUpdateStatus, CapUploadDocument},
	RoleCustoms:   {CapCustomsClearance, CapUploadDocument},
	RoleBuyer:     {CapConfirmDelivery, CapRaiseDispute, CapTriggerPayment},
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Has reports whether the role grants the given capability.
func (r Role) Has(cap Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == cap {
			return true
		}
	}
	return false
}

// ParseRole normalizes caller input (case-insensitive) into a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown custodian role %q", raw)
	}
	return r, nil
}

// Custodian is any actor that can act on a shipment: shipper,
// logistics provider, warehouse, customs officer or buyer.
type Custodian struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Can reports whether the custodian's role grants the capability.
func (c Custodian) Can(cap Capability) bool {
	return c.Role.Has(cap)
}
