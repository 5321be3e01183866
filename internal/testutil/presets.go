package testutil

// Standard graph ids.
const (
	SpeakersID   = 1
	PlaybackFLID = 10
	PlaybackFRID = 11
	PlayerID     = 2
	OutputFLID   = 20
	OutputFRID   = 21
	LinkFLID     = 30
)

// WithStandardGraph adds a stereo sink and a stereo player with the left
// channels linked.
//
// Structure:
//
//	speakers (1)            player (2)
//	  in  playback_FL (10) <── out output_FL (20)   link 30
//	  in  playback_FR (11)     out output_FR (21)
func (b *Builder) WithStandardGraph() *Builder {
	return b.
		WithNode(SpeakersID, "speakers", Description("Built-in Audio")).
		WithPort(PlaybackFLID, "playback_FL", In(), Owner(SpeakersID)).
		WithPort(PlaybackFRID, "playback_FR", In(), Owner(SpeakersID)).
		WithNode(PlayerID, "player", Description("Music Player")).
		WithPort(OutputFLID, "output_FL", Out(), Owner(PlayerID)).
		WithPort(OutputFRID, "output_FR", Out(), Owner(PlayerID)).
		WithLink(LinkFLID, OutputFLID, PlaybackFLID)
}

// WithForwardReferences adds the same graph as WithStandardGraph, announced
// link first, then ports, then nodes, the order a manager may use when it
// replays its state to a new client.
func (b *Builder) WithForwardReferences() *Builder {
	return b.
		WithLink(LinkFLID, OutputFLID, PlaybackFLID).
		WithPort(OutputFLID, "output_FL", Out(), Owner(PlayerID)).
		WithPort(OutputFRID, "output_FR", Out(), Owner(PlayerID)).
		WithPort(PlaybackFLID, "playback_FL", In(), Owner(SpeakersID)).
		WithPort(PlaybackFRID, "playback_FR", In(), Owner(SpeakersID)).
		WithNode(PlayerID, "player", Description("Music Player")).
		WithNode(SpeakersID, "speakers", Description("Built-in Audio"))
}
