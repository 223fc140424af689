package casino

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const casinoABIJSON = `[
  {
    "inputs": [],
    "name": "play",
    "outputs": [{"internalType": "uint256", "name": "requestId", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "player", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "requestId", "type": "uint256"}
    ],
    "name": "PlayRequested",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "player", "type": "address"},
      {"indexed": false, "internalType": "uint8", "name": "number", "type": "uint8"}
    ],
    "name": "PlayResult",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "requestId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "randomWord", "type": "uint256"}
    ],
    "name": "RequestFulfilled",
    "type": "event"
  }
]`

// Event and method names on the casino contract.
const (
	MethodPlay          = "play"
	EventPlayRequested  = "PlayRequested"
	EventPlayResult     = "PlayResult"
	EventRequestFulfill = "RequestFulfilled"
)

var (
	casinoABI     abi.ABI
	casinoABIOnce sync.Once
	casinoABIErr  error
)

// CasinoABI returns the parsed casino contract ABI.
func CasinoABI() (abi.ABI, error) {
	casinoABIOnce.Do(func() {
		casinoABI, casinoABIErr = abi.JSON(strings.NewReader(casinoABIJSON))
	})
	return casinoABI, casinoABIErr
}
