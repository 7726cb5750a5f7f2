package petition

import "github.com/ironvault/sigcollector/pkg/factor"

// BatchOutcome is the result of collecting signatures for a whole batch of
// intents (spec §6). Every intent appears in exactly one of Successful or
// Failed, never both.
type BatchOutcome struct {
	// Successful maps an intent hash to its gathered signatures; every
	// intent here has its role policy satisfied.
	Successful map[factor.IntentHash][]factor.HDSignature
	// Failed maps an intent hash to whatever partial signatures were
	// gathered before the batch terminated.
	Failed map[factor.IntentHash][]factor.HDSignature
	// SkippedFactorSources is the set of every factor source id skipped
	// anywhere in the batch.
	SkippedFactorSources []factor.SourceID
}
