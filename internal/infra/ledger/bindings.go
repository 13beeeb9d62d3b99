package ledger

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

// Solidity event signatures for every tracked kind. Topic0 values are
// derived at startup rather than hard-coded.
var signatures = map[domain.EventKind]string{
	domain.KindCategoryCreated:       "CreateCategory(uint256)",
	domain.KindOrdersMatched:         "OrdersMatched(bytes32,bytes32,bytes32,bytes32,bytes32,uint256)",
	domain.KindAppOrderClosed:        "ClosedAppOrder(bytes32)",
	domain.KindDatasetOrderClosed:    "ClosedDatasetOrder(bytes32)",
	domain.KindWorkerpoolOrderClosed: "ClosedWorkerpoolOrder(bytes32)",
	domain.KindRequestOrderClosed:    "ClosedRequestOrder(bytes32)",
	domain.KindAppTransfer:           "Transfer(address,address,uint256)",
	domain.KindDatasetTransfer:       "Transfer(address,address,uint256)",
	domain.KindWorkerpoolTransfer:    "Transfer(address,address,uint256)",
	domain.KindStakeTransfer:         "Transfer(address,address,uint256)",
	domain.KindRoleRevoked:           "RoleRevoked(bytes32,address,address)",
}

type argKind int

const (
	argAddress argKind = iota
	argUint
	argHash
)

// argSpec maps one decoded argument to its location in the log: an indexed
// topic (Topic > 0) or a 32-byte data word (Topic == 0).
type argSpec struct {
	name  string
	topic int
	word  int
	kind  argKind
}

var argSpecs = map[domain.EventKind][]argSpec{
	domain.KindCategoryCreated: {
		{name: "catid", word: 0, kind: argUint},
	},
	domain.KindOrdersMatched: {
		{name: "dealid", word: 0, kind: argHash},
		{name: "appHash", word: 1, kind: argHash},
		{name: "datasetHash", word: 2, kind: argHash},
		{name: "workerpoolHash", word: 3, kind: argHash},
		{name: "requestHash", word: 4, kind: argHash},
		{name: "volume", word: 5, kind: argUint},
	},
	domain.KindAppOrderClosed: {
		{name: "appHash", word: 0, kind: argHash},
	},
	domain.KindDatasetOrderClosed: {
		{name: "datasetHash", word: 0, kind: argHash},
	},
	domain.KindWorkerpoolOrderClosed: {
		{name: "workerpoolHash", word: 0, kind: argHash},
	},
	domain.KindRequestOrderClosed: {
		{name: "requestHash", word: 0, kind: argHash},
	},
	domain.KindAppTransfer: {
		{name: "from", topic: 1, kind: argAddress},
		{name: "to", topic: 2, kind: argAddress},
		{name: "tokenId", topic: 3, kind: argUint},
	},
	domain.KindDatasetTransfer: {
		{name: "from", topic: 1, kind: argAddress},
		{name: "to", topic: 2, kind: argAddress},
		{name: "tokenId", topic: 3, kind: argUint},
	},
	domain.KindWorkerpoolTransfer: {
		{name: "from", topic: 1, kind: argAddress},
		{name: "to", topic: 2, kind: argAddress},
		{name: "tokenId", topic: 3, kind: argUint},
	},
	domain.KindStakeTransfer: {
		{name: "from", topic: 1, kind: argAddress},
		{name: "to", topic: 2, kind: argAddress},
		{name: "value", word: 0, kind: argUint},
	},
	domain.KindRoleRevoked: {
		{name: "role", topic: 1, kind: argHash},
		{name: "account", topic: 2, kind: argAddress},
		{name: "sender", topic: 3, kind: argAddress},
	},
}

// Binding ties an event kind to the contract emitting it and its topic0.
type Binding struct {
	Kind    domain.EventKind
	Address string
	Topic0  string
}

// ContractAddresses holds the deployed marketplace contract addresses.
type ContractAddresses struct {
	Hub                string
	AppRegistry        string
	DatasetRegistry    string
	WorkerpoolRegistry string
	Token              string // enterprise flavor only
}

// Bindings maps every tracked kind to its log filter.
type Bindings map[domain.EventKind]Binding

// NewBindings resolves the log filters for the tracked kinds of a flavor.
func NewBindings(addrs ContractAddresses, flavor domain.Flavor) (Bindings, error) {
	contractFor := map[domain.EventKind]string{
		domain.KindCategoryCreated:       addrs.Hub,
		domain.KindOrdersMatched:         addrs.Hub,
		domain.KindAppOrderClosed:        addrs.Hub,
		domain.KindDatasetOrderClosed:    addrs.Hub,
		domain.KindWorkerpoolOrderClosed: addrs.Hub,
		domain.KindRequestOrderClosed:    addrs.Hub,
		domain.KindStakeTransfer:         addrs.Hub,
		domain.KindAppTransfer:           addrs.AppRegistry,
		domain.KindDatasetTransfer:       addrs.DatasetRegistry,
		domain.KindWorkerpoolTransfer:    addrs.WorkerpoolRegistry,
		domain.KindRoleRevoked:           addrs.Token,
	}

	b := make(Bindings)
	for _, kind := range domain.TrackedKinds(flavor) {
		addr := contractFor[kind]
		if addr == "" {
			return nil, fmt.Errorf("no contract address configured for %s", kind)
		}
		b[kind] = Binding{
			Kind:    kind,
			Address: addr,
			Topic0:  eventTopic(signatures[kind]),
		}
	}
	return b, nil
}

// eventTopic returns keccak256 of the event signature as a 0x-prefixed hex
// string.
func eventTopic(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return fmt.Sprintf("0x%x", h.Sum(nil))
}
