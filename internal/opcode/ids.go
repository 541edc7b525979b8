// Package opcode holds the bancho packet-id table. It is a leaf package —
// every other package that needs an id imports this one, never the reverse
// — so both the codec/dispatch side and the session/match side can name
// packet ids without an import cycle.
package opcode

// ID is a bancho packet identifier (spec §6: "the full table is part of
// the contract; it is bit-exact across implementations").
type ID = uint16

const (
	OsuChangeAction             ID = 0
	OsuSendPublicMessage        ID = 1
	OsuLogout                   ID = 2
	OsuRequestStatusUpdate      ID = 3
	OsuPing                     ID = 4
	ChoUserID                   ID = 5
	ChoSendMessage              ID = 7
	ChoPong                     ID = 8
	ChoHandleIRCChangeUsername  ID = 9
	ChoHandleIRCQuit            ID = 10
	ChoUserStats                ID = 11
	ChoUserLogout               ID = 12
	ChoSpectatorJoined          ID = 13
	ChoSpectatorLeft            ID = 14
	ChoSpectateFrames           ID = 15
	OsuStartSpectating          ID = 16
	OsuStopSpectating           ID = 17
	OsuSpectateFrames           ID = 18
	ChoVersionUpdate            ID = 19
	OsuErrorReport              ID = 20
	OsuCantSpectate             ID = 21
	ChoSpectatorCantSpectate    ID = 22
	ChoGetAttention             ID = 23
	ChoNotification             ID = 24
	OsuSendPrivateMessage       ID = 25
	ChoUpdateMatch              ID = 26
	ChoNewMatch                 ID = 27
	ChoDisposeMatch             ID = 28
	OsuPartLobby                ID = 29
	OsuJoinLobby                ID = 30
	OsuCreateMatch              ID = 31
	OsuJoinMatch                ID = 32
	OsuPartMatch                ID = 33
	ChoToggleBlockNonFriendDMs  ID = 34
	ChoMatchJoinSuccess         ID = 36
	ChoMatchJoinFail            ID = 37
	OsuMatchChangeSlot          ID = 38
	OsuMatchReady               ID = 39
	OsuMatchLock                ID = 40
	OsuMatchChangeSettings      ID = 41
	ChoFellowSpectatorJoined    ID = 42
	ChoFellowSpectatorLeft      ID = 43
	OsuMatchStart               ID = 44
	ChoAllPlayersLoaded         ID = 45
	ChoMatchStart               ID = 46
	OsuMatchScoreUpdate         ID = 47
	ChoMatchScoreUpdate         ID = 48
	OsuMatchComplete            ID = 49
	ChoMatchTransferHost        ID = 50
	OsuMatchChangeMods          ID = 51
	OsuMatchLoadComplete        ID = 52
	ChoMatchAllPlayersLoaded    ID = 53
	OsuMatchNoBeatmap           ID = 54
	OsuMatchNotReady            ID = 55
	OsuMatchFailed              ID = 56
	ChoMatchPlayerFailed        ID = 57
	ChoMatchComplete            ID = 58
	OsuMatchHasBeatmap          ID = 59
	OsuMatchSkipRequest         ID = 60
	ChoMatchSkip                ID = 61
	// ChoUnauthorized          ID = 62 // unused by the protocol
	OsuChannelJoin              ID = 63
	ChoChannelJoinSuccess       ID = 64
	ChoChannelInfo              ID = 65
	ChoChannelKick              ID = 66
	ChoChannelAutoJoin          ID = 67
	OsuBeatmapInfoRequest       ID = 68
	ChoBeatmapInfoReply         ID = 69
	OsuMatchTransferHost        ID = 70
	ChoPrivileges               ID = 71
	ChoFriendsList              ID = 72
	OsuFriendAdd                ID = 73
	OsuFriendRemove             ID = 74
	ChoProtocolVersion          ID = 75
	ChoMainMenuIcon             ID = 76
	OsuMatchChangeTeam          ID = 77
	OsuChannelPart              ID = 78
	OsuReceiveUpdates           ID = 79
	// ChoMonitor               ID = 80 // unused by the protocol
	ChoMatchPlayerSkipped       ID = 81
	OsuSetAwayMessage           ID = 82
	ChoUserPresence             ID = 83
	OsuIRCOnly                  ID = 84
	OsuUserStatsRequest         ID = 85
	ChoRestart                  ID = 86
	OsuMatchInvite              ID = 87
	ChoMatchInvite              ID = 88
	ChoChannelInfoEnd           ID = 89
	OsuMatchChangePassword      ID = 90
	ChoMatchChangePassword      ID = 91
	ChoSilenceEnd               ID = 92
	OsuTournamentMatchInfoReq   ID = 93
	ChoUserSilenced             ID = 94
	ChoUserPresenceSingle       ID = 95
	ChoUserPresenceBundle       ID = 96
	OsuUserPresenceRequest      ID = 97
	OsuUserPresenceRequestAll   ID = 98
	OsuToggleBlockNonFriendDMs  ID = 99
	ChoUserDMBlocked            ID = 100
	ChoTargetIsSilenced         ID = 101
	ChoVersionUpdateForced      ID = 102
	ChoSwitchServer             ID = 103
	ChoAccountRestricted        ID = 104
	// ChoRTX                   ID = 105 // unused by the protocol
	ChoMatchAbort               ID = 106
	ChoSwitchTournamentServer   ID = 107
	OsuTournamentJoinMatchChan  ID = 108
	OsuTournamentLeaveMatchChan ID = 109
)
