package ledger

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/vietddude/marketwatch/internal/core/domain"
)

// rawLog is the wire shape of an eth_getLogs / logs-subscription entry.
type rawLog struct {
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	BlockNumber string   `json:"blockNumber"`
	TxHash      string   `json:"transactionHash"`
	LogIndex    string   `json:"logIndex"`
	Removed     bool     `json:"removed"`
}

// decodeLog turns a raw log into a ChainEvent for a known kind.
func decodeLog(chainID domain.ChainID, kind domain.EventKind, l rawLog) (domain.ChainEvent, error) {
	blockNumber, err := parseHexUint(l.BlockNumber)
	if err != nil {
		return domain.ChainEvent{}, fmt.Errorf("bad blockNumber %q: %w", l.BlockNumber, err)
	}
	logIndex, err := parseHexUint(l.LogIndex)
	if err != nil {
		return domain.ChainEvent{}, fmt.Errorf("bad logIndex %q: %w", l.LogIndex, err)
	}

	args := make(map[string]string)
	for _, spec := range argSpecs[kind] {
		var raw string
		if spec.topic > 0 {
			if spec.topic >= len(l.Topics) {
				return domain.ChainEvent{}, fmt.Errorf("%s: missing topic %d", kind, spec.topic)
			}
			raw = l.Topics[spec.topic]
		} else {
			raw, err = dataWord(l.Data, spec.word)
			if err != nil {
				return domain.ChainEvent{}, fmt.Errorf("%s: %w", kind, err)
			}
		}

		switch spec.kind {
		case argAddress:
			args[spec.name] = wordToAddress(raw)
		case argUint:
			v, err := wordToUint(raw)
			if err != nil {
				return domain.ChainEvent{}, fmt.Errorf("%s: bad %s: %w", kind, spec.name, err)
			}
			args[spec.name] = v
		case argHash:
			args[spec.name] = strings.ToLower(raw)
		}
	}

	return domain.ChainEvent{
		Kind:        kind,
		ChainID:     chainID,
		BlockNumber: blockNumber,
		TxHash:      strings.ToLower(l.TxHash),
		LogIndex:    uint(logIndex),
		Args:        args,
	}, nil
}

// parseHexUint parses a 0x-prefixed hex quantity.
func parseHexUint(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, fmt.Errorf("empty hex quantity")
	}
	return strconv.ParseUint(s, 16, 64)
}

// dataWord returns the i-th 32-byte word of the log data as 0x-prefixed hex.
func dataWord(data string, i int) (string, error) {
	hexData := strings.TrimPrefix(data, "0x")
	start := i * 64
	end := start + 64
	if len(hexData) < end {
		return "", fmt.Errorf("data too short for word %d", i)
	}
	return "0x" + hexData[start:end], nil
}

// wordToAddress extracts the address from a left-padded 32-byte word.
func wordToAddress(word string) string {
	hexWord := strings.TrimPrefix(strings.ToLower(word), "0x")
	if len(hexWord) < 40 {
		return "0x" + hexWord
	}
	return "0x" + hexWord[len(hexWord)-40:]
}

// wordToUint renders a 32-byte word as a decimal string. Values may exceed
// uint64 (token amounts), so big.Int it is.
func wordToUint(word string) (string, error) {
	hexWord := strings.TrimPrefix(strings.ToLower(word), "0x")
	n, ok := new(big.Int).SetString(hexWord, 16)
	if !ok {
		return "", fmt.Errorf("not a hex quantity: %q", word)
	}
	return n.String(), nil
}
