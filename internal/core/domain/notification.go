package domain

import "time"

type NotificationKind string

const (
	NotificationCreated     NotificationKind = "created"
	NotificationBred        NotificationKind = "bred"
	NotificationTransferred NotificationKind = "transferred"
	NotificationOnSale      NotificationKind = "on_sale"
	NotificationBought      NotificationKind = "bought"
)

// Notification describes one completed transition. Exactly one is emitted
// per successful operation, none for failed ones.
type Notification struct {
	ID           string
	Kind         NotificationKind
	Actor        AccountID
	KittyID      KittyID
	Genome       *Genome    // created, bred
	Counterparty *AccountID // transferred: recipient; bought: seller
	Price        uint64     // bought
	CreatedAt    time.Time
}
