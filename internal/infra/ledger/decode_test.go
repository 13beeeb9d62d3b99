package ledger

import (
	"testing"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

func pad32(hexDigits string) string {
	for len(hexDigits) < 64 {
		hexDigits = "0" + hexDigits
	}
	return hexDigits
}

func TestDecodeLog_StakeTransfer(t *testing.T) {
	l := rawLog{
		Address: "0xhub",
		Topics: []string{
			eventTopic("Transfer(address,address,uint256)"),
			"0x000000000000000000000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"0x000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		},
		Data:        "0x" + pad32("de0b6b3a7640000"), // 1e18
		BlockNumber: "0x3d0912",
		TxHash:      "0xABCDEF",
		LogIndex:    "0x2",
	}

	ev, err := decodeLog("134", domain.KindStakeTransfer, l)
	if err != nil {
		t.Fatalf("decodeLog failed: %v", err)
	}

	if ev.BlockNumber != 4000018 {
		t.Errorf("Expected block 4000018, got %d", ev.BlockNumber)
	}
	if ev.LogIndex != 2 {
		t.Errorf("Expected log index 2, got %d", ev.LogIndex)
	}
	if ev.TxHash != "0xabcdef" {
		t.Errorf("Expected lowercased tx hash, got %s", ev.TxHash)
	}
	if ev.From() != "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("Bad from: %s", ev.From())
	}
	if ev.To() != "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" {
		t.Errorf("Bad to: %s", ev.To())
	}
	if ev.Value() != "1000000000000000000" {
		t.Errorf("Expected decimal value 1000000000000000000, got %s", ev.Value())
	}
}

func TestDecodeLog_OrdersMatched(t *testing.T) {
	dealid := pad32("1234")
	data := "0x" + dealid + pad32("a1") + pad32("a2") + pad32("a3") + pad32("a4") + pad32("5")

	l := rawLog{
		Topics:      []string{eventTopic(signatures[domain.KindOrdersMatched])},
		Data:        data,
		BlockNumber: "0x10",
		TxHash:      "0xdeal",
		LogIndex:    "0x0",
	}

	ev, err := decodeLog("134", domain.KindOrdersMatched, l)
	if err != nil {
		t.Fatalf("decodeLog failed: %v", err)
	}

	if ev.Args["dealid"] != "0x"+dealid {
		t.Errorf("Bad dealid: %s", ev.Args["dealid"])
	}
	if ev.Args["volume"] != "5" {
		t.Errorf("Expected volume 5, got %s", ev.Args["volume"])
	}
}

func TestDecodeLog_MissingTopic(t *testing.T) {
	l := rawLog{
		Topics:      []string{eventTopic(signatures[domain.KindStakeTransfer])},
		Data:        "0x" + pad32("1"),
		BlockNumber: "0x10",
		LogIndex:    "0x0",
	}

	if _, err := decodeLog("134", domain.KindStakeTransfer, l); err == nil {
		t.Fatal("Expected error for missing indexed topics, got nil")
	}
}

func TestNewBindings_FlavorGating(t *testing.T) {
	addrs := ContractAddresses{
		Hub:                "0x1",
		AppRegistry:        "0x2",
		DatasetRegistry:    "0x3",
		WorkerpoolRegistry: "0x4",
	}

	b, err := NewBindings(addrs, domain.FlavorStandard)
	if err != nil {
		t.Fatalf("NewBindings failed: %v", err)
	}
	if _, ok := b[domain.KindRoleRevoked]; ok {
		t.Error("Standard flavor must not bind RoleRevoked")
	}

	// Enterprise without a token address fails fast.
	if _, err := NewBindings(addrs, domain.FlavorEnterprise); err == nil {
		t.Fatal("Expected error for enterprise flavor without token address")
	}

	addrs.Token = "0x5"
	b, err = NewBindings(addrs, domain.FlavorEnterprise)
	if err != nil {
		t.Fatalf("NewBindings failed: %v", err)
	}
	if _, ok := b[domain.KindRoleRevoked]; !ok {
		t.Error("Enterprise flavor must bind RoleRevoked")
	}
}

func TestEventTopic_TransferSignature(t *testing.T) {
	// Canonical ERC-20 Transfer topic, a fixed point of keccak256.
	got := eventTopic("Transfer(address,address,uint256)")
	want := "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}
