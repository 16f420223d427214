package testing

// Pair is a sender and a receiver of a message
type Pair struct {
	Sender, Receiver int64
}

// Pairs pairs the first provided userID as sender with each of the others as receiver
// e.g. [0, 1, 2, 3] -> [{0,1}, {0,2}, {0,3}]
func Pairs(userIDs []int64) []Pair {
	if len(userIDs) < 2 {
		return nil
	}

	pairs := make([]Pair, 0, len(userIDs)-1)
	for i := 1; i < len(userIDs); i++ {
		pairs = append(pairs, Pair{Sender: userIDs[0], Receiver: userIDs[i]})
	}

	return pairs
}

// Swapped returns p with sender and receiver exchanged, a reply direction
func (p Pair) Swapped() Pair {
	return Pair{Sender: p.Receiver, Receiver: p.Sender}
}
