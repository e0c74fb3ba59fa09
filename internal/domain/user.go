package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStatusTransition = errors.New("user verification is no longer pending")
	ErrUnknownRole      = errors.New("unknown user role")
)

// RoleKind names a role on the wire and in storage
type RoleKind string

const (
	KindBuyer  RoleKind = "buyer"
	KindSeller RoleKind = "seller"
	KindAdmin  RoleKind = "admin"
)

// ParseRoleKind validates a role name
func ParseRoleKind(s string) (RoleKind, error) {
	switch RoleKind(s) {
	case KindBuyer, KindSeller, KindAdmin:
		return RoleKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Role is the closed set of user roles. Only Buyer, Seller and Admin
// implement it.
type Role interface {
	Kind() RoleKind
	isRole()
}

// Buyer carries the buyer-facing identifier (BUY...)
type Buyer struct {
	BuyerID string
}

// Seller carries the seller-facing identifier (RSH...)
type Seller struct {
	SellerID string
}

// Admin has no role-specific identifier
type Admin struct{}

func (Buyer) Kind() RoleKind  { return KindBuyer }
func (Seller) Kind() RoleKind { return KindSeller }
func (Admin) Kind() RoleKind  { return KindAdmin }

func (Buyer) isRole()  {}
func (Seller) isRole() {}
func (Admin) isRole()  {}

// MatchRole dispatches on the role variant. Every variant must be handled.
func MatchRole[T any](r Role, buyer func(Buyer) T, seller func(Seller) T, admin func(Admin) T) T {
	switch v := r.(type) {
	case Buyer:
		return buyer(v)
	case Seller:
		return seller(v)
	case Admin:
		return admin(v)
	}
	panic(fmt.Sprintf("domain: unhandled role %T", r))
}

// NewRole builds a role from its stored parts. The role-specific id must
// match the kind: sellers need a seller id, buyers a buyer id.
func NewRole(kind RoleKind, sellerID, buyerID string) (Role, error) {
	switch kind {
	case KindBuyer:
		if buyerID == "" || sellerID != "" {
			return nil, fmt.Errorf("buyer role needs exactly a buyer id")
		}
		return Buyer{BuyerID: buyerID}, nil
	case KindSeller:
		if sellerID == "" || buyerID != "" {
			return nil, fmt.Errorf("seller role needs exactly a seller id")
		}
		return Seller{SellerID: sellerID}, nil
	case KindAdmin:
		if sellerID != "" || buyerID != "" {
			return nil, fmt.Errorf("admin role has no role-specific id")
		}
		return Admin{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, kind)
}

// VerificationStatus tracks the admin review of an account
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusVerified VerificationStatus = "verified"
	StatusRejected VerificationStatus = "rejected"
)

// User is a marketplace account
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       VerificationStatus
	Phone        string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SellerID returns the seller identifier, or "" for non-sellers
func (u *User) SellerID() string {
	if s, ok := u.Role.(Seller); ok {
		return s.SellerID
	}
	return ""
}

// BuyerID returns the buyer identifier, or "" for non-buyers
func (u *User) BuyerID() string {
	if b, ok := u.Role.(Buyer); ok {
		return b.BuyerID
	}
	return ""
}

// IsVerified reports whether an admin has approved the account
func (u *User) IsVerified() bool {
	return u.Status == StatusVerified
}

// Verify approves a pending account
func (u *User) Verify(now time.Time) error {
	return u.transition(StatusVerified, now)
}

// Reject declines a pending account
func (u *User) Reject(now time.Time) error {
	return u.transition(StatusRejected, now)
}

func (u *User) transition(to VerificationStatus, now time.Time) error {
	if u.Status != StatusPending {
		return ErrStatusTransition
	}
	u.Status = to
	u.UpdatedAt = now
	return nil
}

// DashboardPath is where the front end sends the user after login
func (u *User) DashboardPath() string {
	return MatchRole(u.Role,
		func(Buyer) string {
			if !u.IsVerified() {
				return "/verification-pending"
			}
			return "/buyer-dashboard"
		},
		func(Seller) string {
			if !u.IsVerified() {
				return "/verification-pending"
			}
			return "/seller-dashboard"
		},
		func(Admin) string { return "/admin-panel" },
	)
}

// userRecord is the flat persisted form of a user profile
type userRecord struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Type      RoleKind           `json:"type"`
	Status    VerificationStatus `json:"status"`
	SellerID  string             `json:"sellerId,omitempty"`
	BuyerID   string             `json:"buyerId,omitempty"`
	Phone     string             `json:"phone,omitempty"`
	Address   string             `json:"address,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// MarshalJSON writes the flat profile record. The password hash is never
// included.
func (u User) MarshalJSON() ([]byte, error) {
	if u.Role == nil {
		return nil, ErrUnknownRole
	}
	return json.Marshal(userRecord{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Type:      u.Role.Kind(),
		Status:    u.Status,
		SellerID:  u.SellerID(),
		BuyerID:   u.BuyerID(),
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	})
}

// UnmarshalJSON reads the flat profile record
func (u *User) UnmarshalJSON(data []byte) error {
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	role, err := NewRole(rec.Type, rec.SellerID, rec.BuyerID)
	if err != nil {
		return err
	}
	*u = User{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Role:      role,
		Status:    rec.Status,
		Phone:     rec.Phone,
		Address:   rec.Address,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	return nil
}
