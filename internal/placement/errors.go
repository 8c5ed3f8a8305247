package placement

import (
	"fmt"

	"github.com/oddsarb/engine/internal/currency"
)

func errStakeTooLarge(host string, stake, max currency.Currency) error {
	return fmt.Errorf("placement: stake %s for %s exceeds max stake %s", stake, host, max)
}

func errInsufficientBalance(host string, stake, balance currency.Currency) error {
	return fmt.Errorf("placement: stake %s for %s exceeds balance %s", stake, host, balance)
}

func errAbortedSync() error {
	return fmt.Errorf("placement: aborted during barrier synchronization")
}
