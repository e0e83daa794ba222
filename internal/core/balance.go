package core

// Balance folds the full record set into a BalanceState. It always starts
// from an empty accumulator: settlement and deletion can change the set
// arbitrarily between calls, so no running total is kept anywhere.
//
// Only unsettled records count. A record paid by SELF contributes +amount
// (the other party owes self), one paid by OTHER contributes -amount.
// REPAYMENT rows use the same sign rule as DEBT; existing data relies on
// that.
func Balance(txs []Transaction) BalanceState {
	var net int64
	for _, t := range txs {
		if t.IsSettled {
			continue
		}
		switch t.Payer {
		case PayerSelf:
			net += t.Amount.Cents
		case PayerOther:
			net -= t.Amount.Cents
		}
	}

	status := StatusSettled
	switch {
	case net > 0:
		status = StatusOwed
	case net < 0:
		status = StatusOwing
	}

	return BalanceState{
		NetAmount: Money{Cents: net},
		Status:    status,
	}
}
