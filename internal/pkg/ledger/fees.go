package ledger

// Fee split applied to every earning. Both fees round down, so the creator
// net is biased up by at most one minor unit per transaction. The exact
// flooring matters for reconciliation against the gateway's own rounding.
const (
	platformFeePermille   = 100 // 10.0%
	processingFeePermille = 29  // 2.9%
)

// SplitFees divides a gross amount in minor currency units into platform fee,
// processing fee and creator net. The three parts always sum to gross.
func SplitFees(gross int64) (platformFee, processingFee, net int64) {
	platformFee = gross * platformFeePermille / 1000
	processingFee = gross * processingFeePermille / 1000
	net = gross - platformFee - processingFee
	return platformFee, processingFee, net
}
