package suppliers

import (
	"net/mail"
	"slices"
	"strings"

	"github.com/bakeops/bakeops/internal/shared"
)

// NormalizeDeliveryDays lowercases, deduplicates and sorts day codes into
// calendar order. Unknown codes are kept, at the end, so validation can
// report them.
func NormalizeDeliveryDays(days []string) []string {
	seen := make(map[string]struct{}, len(days))
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.ToLower(strings.TrimSpace(d))
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return weekdayIndex(a) - weekdayIndex(b)
	})
	return out
}

func weekdayIndex(d string) int {
	if i := slices.Index(shared.Weekdays, d); i >= 0 {
		return i
	}
	return len(shared.Weekdays)
}

func (s *Service) validateCreate(req *CreateSupplierRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.ContactName = strings.TrimSpace(req.ContactName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.Notes = strings.TrimSpace(req.Notes)
	req.DeliveryDays = NormalizeDeliveryDays(req.DeliveryDays)
	return shared.ValidateStruct(req)
}

func (s *Service) validateUpdate(req *UpdateSupplierRequest) error {
	for _, p := range []*string{req.Name, req.ContactName, req.Phone, req.Address, req.Notes} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if req.Email != nil {
		*req.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.DeliveryDays != nil {
		days := NormalizeDeliveryDays(*req.DeliveryDays)
		req.DeliveryDays = &days
	}
	errs := &shared.ValidationError{}
	if err := shared.ValidateStruct(req); err != nil {
		verr, ok := err.(*shared.ValidationError)
		if !ok {
			return err
		}
		errs = verr
	}
	// An empty email clears the field; anything else must parse.
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			errs.Add("email", "must be a valid email address")
		}
	}
	return errs.OrNil()
}

func (req UpdateSupplierRequest) apply(s *Supplier) {
	setStr := func(dst, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&s.Name, req.Name)
	setStr(&s.ContactName, req.ContactName)
	setStr(&s.Email, req.Email)
	setStr(&s.Phone, req.Phone)
	setStr(&s.Address, req.Address)
	setStr(&s.Notes, req.Notes)
	if req.DeliveryDays != nil {
		s.DeliveryDays = *req.DeliveryDays
	}
	if req.MinimumOrderCents != nil {
		s.MinimumOrderCents = *req.MinimumOrderCents
	}
	if req.DeliveryFeeCents != nil {
		s.DeliveryFeeCents = *req.DeliveryFeeCents
	}
	if req.PaymentTermsDays != nil {
		s.PaymentTermsDays = *req.PaymentTermsDays
	}
	if req.IsActive != nil {
		s.IsActive = *req.IsActive
	}
}
