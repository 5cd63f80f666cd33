package types

import (
	"time"

	"gorm.io/gorm"
)

// Listing states
const (
	ListingPending  = "Pending"
	ListingRejected = "Rejected"
)

// PaymentOrder states. RefundRequired and Expired are set by the reconciler
// and are never polled again.
const (
	OrderCreated        = "Created"
	OrderCompleted      = "Completed"
	OrderRefundRequired = "RefundRequired"
	OrderExpired        = "Expired"
)

// MaxPrice is the highest listing price accepted, in rupees
const MaxPrice = 1_000_000

// Payment methods recorded on a sale
const (
	PaymentRazorpay = "Razorpay"
	PaymentUPI      = "UPI"
	PaymentCash     = "Cash"
)

var (
	Conditions = []string{"New", "Like New", "Very Good", "Good", "Acceptable"}
	Categories = []string{"Fiction", "Non-Fiction", "Textbook", "Children", "Other"}
)

// Listing is a book submitted for sale and waiting on an admin decision.
// RejectionReason is set only when State is Rejected.
type Listing struct {
	gorm.Model      `json:"-"`
	ListingID       string    `gorm:"uniqueIndex" json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn,omitempty"`
	Price           float64   `json:"price"`
	Condition       string    `json:"condition"`
	Description     string    `json:"description,omitempty"`
	Images          []string  `gorm:"serializer:json" json:"images"`
	Category        string    `json:"category"`
	SellerID        string    `gorm:"index" json:"seller_id"`
	State           string    `gorm:"index" json:"status"` // Pending, Rejected
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CatalogEntry is an approved book that can be bought. It exists until the
// sale that consumes it.
type CatalogEntry struct {
	gorm.Model  `json:"-"`
	EntryID     string    `gorm:"uniqueIndex" json:"id"`
	SellerID    string    `gorm:"index" json:"seller_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn,omitempty"`
	Price       float64   `json:"price"`
	Condition   string    `json:"condition"`
	Description string    `json:"description,omitempty"`
	Images      []string  `gorm:"serializer:json" json:"images"`
	Category    string    `gorm:"index" json:"category"`
	ApprovedBy  string    `json:"approved_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PaymentOrder mirrors one provider-side order. It does not reserve the entry.
type PaymentOrder struct {
	gorm.Model        `json:"-"`
	ProviderOrderID   string    `gorm:"uniqueIndex" json:"provider_order_id"`
	Amount            int64     `json:"amount"` // minor units
	Currency          string    `json:"currency"`
	CatalogEntryID    string    `gorm:"index" json:"catalog_entry_id"`
	BuyerID           string    `gorm:"index" json:"buyer_id"`
	Status            string    `gorm:"index" json:"status"` // Created, Completed, RefundRequired, Expired
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SaleRecord is written once per completed sale and never changed.
type SaleRecord struct {
	gorm.Model     `json:"-"`
	SaleID         string    `gorm:"uniqueIndex" json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Condition      string    `json:"condition"`
	Category       string    `json:"category"`
	Images         []string  `gorm:"serializer:json" json:"images"`
	Price          float64   `json:"price"`
	SellerID       string    `gorm:"index" json:"seller_id"`
	BuyerID        string    `gorm:"index" json:"buyer_id"`
	CatalogEntryID string    `gorm:"uniqueIndex" json:"book_id"`
	SoldAt         time.Time `json:"sold_at"`
	TransactionID  string    `gorm:"uniqueIndex" json:"transaction_id"`
	PaymentMethod  string    `json:"payment_method"` // Razorpay, UPI, Cash
}

// User is the read-only contact view of an account.
type User struct {
	gorm.Model `json:"-"`
	UserID     string `gorm:"uniqueIndex" json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

func ValidCondition(c string) bool {
	return contains(Conditions, c)
}

func ValidCategory(c string) bool {
	return contains(Categories, c)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
