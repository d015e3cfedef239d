package checkout

import (
	"github.com/fjod/go_storefront/internal/domain"
)

// Assemble turns a validated draft and the cart into an order-creation
// request. It does not validate; callers run Validate and the cart
// completeness checks first.
func Assemble(draft domain.CheckoutDraft, cart *domain.Cart) domain.OrderRequest {
	billing := domain.Address{
		FirstName: draft.FirstName,
		LastName:  draft.LastName,
		Address1:  draft.Address1,
		Address2:  draft.Address2,
		City:      draft.City,
		State:     draft.State,
		Postcode:  draft.Postcode,
		Country:   draft.Country,
		Email:     draft.Email,
		Phone:     draft.Phone,
	}

	var shipping domain.Address
	if draft.ShippingSameAsBilling {
		shipping = billing
	} else {
		shipping = domain.Address{
			FirstName: fallback(draft.ShippingFirstName, draft.FirstName),
			LastName:  fallback(draft.ShippingLastName, draft.LastName),
			Address1:  fallback(draft.ShippingAddress1, draft.Address1),
			Address2:  draft.ShippingAddress2,
			City:      fallback(draft.ShippingCity, draft.City),
			State:     fallback(draft.ShippingState, draft.State),
			Postcode:  fallback(draft.ShippingPostcode, draft.Postcode),
			Country:   fallback(draft.ShippingCountry, draft.Country),
		}
	}

	items := make([]domain.OrderLineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, domain.OrderLineItem{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}

	method := domain.LookupPaymentMethod(draft.PaymentMethod)

	req := domain.OrderRequest{
		Billing:            billing,
		Shipping:           shipping,
		LineItems:          items,
		CustomerNote:       draft.OrderNotes,
		CreateAccount:      draft.CreateAccount,
		PaymentMethod:      method.ID,
		PaymentMethodTitle: method.Title,
	}
	if draft.CreateAccount {
		req.Password = draft.Password
	}
	return req
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
