package domain

// ZeroAddress is the EVM burn/mint address. Stake transfers originating from
// it are mints, not losses.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// ChainID identifies a ledger namespace (e.g. "134" for bellecour).
type ChainID string

// EventKind enumerates the tracked marketplace event kinds.
type EventKind string

const (
	KindCategoryCreated       EventKind = "category_created"
	KindOrdersMatched         EventKind = "orders_matched"
	KindAppOrderClosed        EventKind = "app_order_closed"
	KindDatasetOrderClosed    EventKind = "dataset_order_closed"
	KindWorkerpoolOrderClosed EventKind = "workerpool_order_closed"
	KindRequestOrderClosed    EventKind = "request_order_closed"
	KindAppTransfer           EventKind = "app_transfer"
	KindDatasetTransfer       EventKind = "dataset_transfer"
	KindWorkerpoolTransfer    EventKind = "workerpool_transfer"
	KindStakeTransfer         EventKind = "stake_transfer"
	KindRoleRevoked           EventKind = "role_revoked"
)

// Flavor selects the deployment variant. The enterprise flavor additionally
// tracks RoleRevoked events.
type Flavor string

const (
	FlavorStandard   Flavor = "standard"
	FlavorEnterprise Flavor = "enterprise"
)

// TrackedKinds returns the event kinds watched for a flavor. Resolved once at
// startup, not re-evaluated per event.
func TrackedKinds(flavor Flavor) []EventKind {
	kinds := []EventKind{
		KindCategoryCreated,
		KindOrdersMatched,
		KindAppOrderClosed,
		KindDatasetOrderClosed,
		KindWorkerpoolOrderClosed,
		KindRequestOrderClosed,
		KindAppTransfer,
		KindDatasetTransfer,
		KindWorkerpoolTransfer,
		KindStakeTransfer,
	}
	if flavor == FlavorEnterprise {
		kinds = append(kinds, KindRoleRevoked)
	}
	return kinds
}

// ChainEvent is a decoded ledger event. It is transient: durable storage
// belongs to the materializer, keyed by (TxHash, LogIndex).
type ChainEvent struct {
	Kind        EventKind
	ChainID     ChainID
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
	Args        map[string]string
}

// From reads the source address of transfer-shaped events.
func (e *ChainEvent) From() string { return e.Args["from"] }

// To reads the destination address of transfer-shaped events.
func (e *ChainEvent) To() string { return e.Args["to"] }

// Value reads the transferred amount, "0" when absent.
func (e *ChainEvent) Value() string {
	if v, ok := e.Args["value"]; ok {
		return v
	}
	return "0"
}
