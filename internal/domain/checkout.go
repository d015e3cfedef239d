package domain

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodBACS   PaymentMethod = "bacs"
	PaymentMethodCheque PaymentMethod = "cheque"
)

type PaymentMethodInfo struct {
	ID          PaymentMethod `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Title       string        `json:"title"`
}

// PaymentMethods is the fixed set offered at checkout, in display order.
var PaymentMethods = []PaymentMethodInfo{
	{
		ID:          PaymentMethodCOD,
		Label:       "Cash on Delivery (COD)",
		Description: "Pay with cash when your package is delivered.",
		Title:       "Cash on Delivery",
	},
	{
		ID:          PaymentMethodBACS,
		Label:       "Direct Bank Transfer",
		Description: "Make your payment directly into our bank account. Please use your Order ID as the payment reference.",
		Title:       "Direct Bank Transfer",
	},
	{
		ID:          PaymentMethodCheque,
		Label:       "Check Payments",
		Description: "Please send a check to Store Name, Store Street, Store Town, Store State / County, Store Postcode.",
		Title:       "Check Payments",
	},
}

// LookupPaymentMethod resolves a method code. Unknown or empty codes resolve
// to cash on delivery.
func LookupPaymentMethod(code string) PaymentMethodInfo {
	for _, m := range PaymentMethods {
		if string(m.ID) == code {
			return m
		}
	}
	return PaymentMethods[0]
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CheckoutDraft is the form state collected over the checkout steps.
type CheckoutDraft struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address1  string `json:"address_1" validate:"required"`
	Address2  string `json:"address_2"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Postcode  string `json:"postcode" validate:"required"`
	Country   string `json:"country" validate:"required"`

	ShippingSameAsBilling bool   `json:"shipping_same_as_billing"`
	ShippingFirstName     string `json:"shipping_first_name"`
	ShippingLastName      string `json:"shipping_last_name"`
	ShippingAddress1      string `json:"shipping_address_1"`
	ShippingAddress2      string `json:"shipping_address_2"`
	ShippingCity          string `json:"shipping_city"`
	ShippingState         string `json:"shipping_state"`
	ShippingPostcode      string `json:"shipping_postcode"`
	ShippingCountry       string `json:"shipping_country"`

	OrderNotes    string `json:"order_notes"`
	CreateAccount bool   `json:"create_account"`
	Password      string `json:"password" validate:"required_if=CreateAccount true"`
	PaymentMethod string `json:"payment_method"`
}

// OrderLineItem is what the order API receives per cart line. Price is
// omitted; the commerce platform prices the order.
type OrderLineItem struct {
	ProductID   int64 `json:"product_id"`
	VariationID int64 `json:"variation_id"`
	Quantity    int   `json:"quantity"`
}

type OrderRequest struct {
	CustomerID         int64           `json:"customer_id,omitempty"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	LineItems          []OrderLineItem `json:"line_items"`
	CustomerNote       string          `json:"customer_note"`
	CreateAccount      bool            `json:"create_account"`
	Password           string          `json:"password,omitempty"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
}

// Confirmation identifies a placed order.
type Confirmation struct {
	OrderID int64  `json:"id"`
	Number  string `json:"number"`
}
