// Package outlier runs a single room of the outlier party game.
//
// Players join with a stable identity and a display name. The first player
// still present is the host. Once enough players are in, every player is sent
// a secret value; all of them share one value except a single randomly chosen
// outlier, who gets a different one. The host can restart the round at any
// time, which also announces who the previous outlier was.
//
// How to play
//   - Everyone looks at their value and takes turns describing it
//   - The regular players try to spot who does not share their value
//   - The outlier tries to blend in and guess the shared value
package outlier
