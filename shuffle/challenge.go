package shuffle

import (
	"math/big"

	"github.com/takakv/e2easy/group"
	"github.com/takakv/e2easy/transcript"
)

const (
	domainPerIndex = "e2easy/shuffle/u/v1"
	domainGlobal   = "e2easy/shuffle/c/v1"
)

// perIndexChallenges derives u_i = H(original, shuffled, cList, i) for
// every position. The shared prefix is hashed once and cloned per index.
func perIndexChallenges(g group.Group, original, shuffled, cList []group.Element) []*big.Int {
	base := transcript.New(domainPerIndex).
		AppendElements("original", original).
		AppendElements("shuffled", shuffled).
		AppendElements("c", cList)

	u := make([]*big.Int, len(original))
	forEach(len(u), func(i int) {
		u[i] = base.Clone().AppendUint64("i", uint64(i)).Challenge(g)
	})
	return u
}

func globalChallenge(g group.Group, original, shuffled, cList, cHatList []group.Element,
	t0, t1, t2, t3 group.Element, tHat []group.Element) *big.Int {

	return transcript.New(domainGlobal).
		AppendElements("original", original).
		AppendElements("shuffled", shuffled).
		AppendElements("c", cList).
		AppendElements("c_hat", cHatList).
		AppendElement("t0", t0).
		AppendElement("t1", t1).
		AppendElement("t2", t2).
		AppendElement("t3", t3).
		AppendElements("t_hat", tHat).
		Challenge(g)
}
