// Package identity confirms who is physically present at the counter.
// The ticket workflow treats it as an oracle returning a match flag and a
// capability set.
package identity

import (
	"context"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fueldesk/internal/core/apperror"
)

// Capability is something a confirmed person is authorised to do.
type Capability string

const (
	// CapabilityIssue allows handing out printed tickets (warehouse staff).
	CapabilityIssue Capability = "ISSUE"
	// CapabilityReceive allows collecting fuel on behalf of a unit.
	CapabilityReceive Capability = "RECEIVE"
)

// Claim is a claimed identity plus the sample that should prove it.
type Claim struct {
	NationalID string
	Sample     string
}

// Validate checks claim input.
func (c Claim) Validate(role string) error {
	if strings.TrimSpace(c.NationalID) == "" || c.Sample == "" {
		return apperror.NewValidation(role + " national id and sample are required")
	}
	return nil
}

// Result is the verifier's answer.
type Result struct {
	Matched      bool
	PersonID     int64
	Name         string
	Capabilities []Capability
	UnitID       *int64
}

// Has reports whether the confirmed identity carries c.
func (r Result) Has(c Capability) bool {
	return r.Matched && slices.Contains(r.Capabilities, c)
}

// Verifier checks a claim. A non-matching sample is Matched=false, not an error.
type Verifier interface {
	Verify(ctx context.Context, claim Claim) (Result, error)
}

// Person is an enrolled identity.
type Person struct {
	ID           int64    `db:"id"`
	NationalID   string   `db:"national_id"`
	Name         string   `db:"name"`
	SecretHash   string   `db:"secret_hash"`
	Capabilities []string `db:"capabilities"`
	// Roles are the API roles granted when the person signs in.
	Roles  []string `db:"roles"`
	UnitID *int64   `db:"unit_id"`
	Active bool     `db:"active"`
}

// Store looks up enrolled persons.
type Store interface {
	FindByNationalID(ctx context.Context, nationalID string) (*Person, error)
}

// CredentialVerifier matches samples against bcrypt hashes of enrolled secrets.
// It stands in for the external biometric matcher.
type CredentialVerifier struct {
	store Store
}

func NewCredentialVerifier(store Store) *CredentialVerifier {
	return &CredentialVerifier{store: store}
}

// Verify implements Verifier.
func (v *CredentialVerifier) Verify(ctx context.Context, claim Claim) (Result, error) {
	person, err := v.store.FindByNationalID(ctx, strings.TrimSpace(claim.NationalID))
	if err != nil {
		if apperror.IsNotFound(err) {
			return Result{}, nil
		}
		return Result{}, err
	}
	if !person.Active {
		return Result{}, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(person.SecretHash), []byte(claim.Sample)); err != nil {
		return Result{}, nil
	}

	caps := make([]Capability, 0, len(person.Capabilities))
	for _, c := range person.Capabilities {
		caps = append(caps, Capability(strings.ToUpper(c)))
	}
	return Result{
		Matched:      true,
		PersonID:     person.ID,
		Name:         person.Name,
		Capabilities: caps,
		UnitID:       person.UnitID,
	}, nil
}

// HashSecret produces the stored form of an enrolment secret.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
