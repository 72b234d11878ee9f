package lcu

// Wire types for the LCU match-history endpoints. The client payloads are
// loosely shaped JSON; every optional field decodes to its zero value so
// downstream normalization never has to guard against missing keys.

// MatchHistoryResponse is the paginated payload from
// /lol-match-history/v1/products/lol/{puuid}/matches.
type MatchHistoryResponse struct {
	Games struct {
		Games []MatchSummary `json:"games"`
	} `json:"games"`
}

// MatchSummary is one game record as returned by the paginated history
// endpoint. The per-game detail endpoint returns the same shape with the
// teams, bans and identity sections fully populated.
type MatchSummary struct {
	GameID           int64  `json:"gameId"`
	PlatformID       string `json:"platformId"`
	GameCreation     int64  `json:"gameCreation"`
	GameCreationDate string `json:"gameCreationDate"`
	GameDuration     int    `json:"gameDuration"`
	QueueID          int    `json:"queueId"`
	MapID            int    `json:"mapId"`
	GameMode         string `json:"gameMode"`
	GameType         string `json:"gameType"`
	GameVersion      string `json:"gameVersion"`

	Teams                 []TeamData            `json:"teams"`
	Participants          []ParticipantData     `json:"participants"`
	ParticipantIdentities []ParticipantIdentity `json:"participantIdentities"`
}

// MatchDetail wraps a match record together with its provenance. IsFallback
// marks that the detail lookup failed and the summary was used instead.
type MatchDetail struct {
	MatchSummary
	IsFallback bool `json:"-"`
}

// TeamData holds per-team objectives. Win is a string on the wire
// ("Win"/"Fail"), never a boolean.
type TeamData struct {
	TeamID          int       `json:"teamId"`
	Win             string    `json:"win"`
	FirstBlood      bool      `json:"firstBlood"`
	FirstTower      bool      `json:"firstTower"`
	FirstDragon     bool      `json:"firstDragon"`
	FirstBaron      bool      `json:"firstBaron"`
	FirstInhibitor  bool      `json:"firstInhibitor"`
	FirstRiftHerald bool      `json:"firstRiftHerald"`
	TowerKills      int       `json:"towerKills"`
	InhibitorKills  int       `json:"inhibitorKills"`
	DragonKills     int       `json:"dragonKills"`
	BaronKills      int       `json:"baronKills"`
	RiftHeraldKills int       `json:"riftHeraldKills"`
	Bans            []BanData `json:"bans"`
}

// BanData is one champion ban. PickTurn gives the ban order within the team.
type BanData struct {
	ChampionID int `json:"championId"`
	PickTurn   int `json:"pickTurn"`
}

// ParticipantData holds one participant's champion, spells and stat block.
type ParticipantData struct {
	ParticipantID int              `json:"participantId"`
	TeamID        int              `json:"teamId"`
	ChampionID    int              `json:"championId"`
	Spell1ID      int              `json:"spell1Id"`
	Spell2ID      int              `json:"spell2Id"`
	Timeline      ParticipantLane  `json:"timeline"`
	Stats         ParticipantStats `json:"stats"`
}

// ParticipantLane carries the role/lane assignment from the per-participant
// timeline section.
type ParticipantLane struct {
	Lane string `json:"lane"`
	Role string `json:"role"`
}

// ParticipantStats is the full stat block. Fields absent from the payload
// decode to 0/false.
type ParticipantStats struct {
	Win        bool `json:"win"`
	ChampLevel int  `json:"champLevel"`

	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`

	TotalDamageDealtToChampions    int `json:"totalDamageDealtToChampions"`
	MagicDamageDealtToChampions    int `json:"magicDamageDealtToChampions"`
	PhysicalDamageDealtToChampions int `json:"physicalDamageDealtToChampions"`
	TrueDamageDealtToChampions     int `json:"trueDamageDealtToChampions"`
	TotalDamageTaken               int `json:"totalDamageTaken"`
	MagicalDamageTaken             int `json:"magicalDamageTaken"`
	PhysicalDamageTaken            int `json:"physicalDamageTaken"`
	TrueDamageTaken                int `json:"trueDamageTaken"`
	TotalHeal                      int `json:"totalHeal"`
	TotalUnitsHealed               int `json:"totalUnitsHealed"`
	TotalShieldedOnTeammates       int `json:"totalShieldedOnTeammates"`
	TimeCCingOthers                int `json:"timeCCingOthers"`

	VisionScore             int `json:"visionScore"`
	WardsPlaced             int `json:"wardsPlaced"`
	WardsKilled             int `json:"wardsKilled"`
	VisionWardsBoughtInGame int `json:"visionWardsBoughtInGame"`

	GoldEarned           int `json:"goldEarned"`
	GoldSpent            int `json:"goldSpent"`
	TotalMinionsKilled   int `json:"totalMinionsKilled"`
	NeutralMinionsKilled int `json:"neutralMinionsKilled"`

	Item0 int `json:"item0"`
	Item1 int `json:"item1"`
	Item2 int `json:"item2"`
	Item3 int `json:"item3"`
	Item4 int `json:"item4"`
	Item5 int `json:"item5"`
	Item6 int `json:"item6"`

	PerkPrimaryStyle int `json:"perkPrimaryStyle"`
	PerkSubStyle     int `json:"perkSubStyle"`
	Perk0            int `json:"perk0"`
	Perk1            int `json:"perk1"`
	Perk2            int `json:"perk2"`
	Perk3            int `json:"perk3"`
	Perk4            int `json:"perk4"`
	Perk5            int `json:"perk5"`
	StatPerk0        int `json:"statPerk0"`
	StatPerk1        int `json:"statPerk1"`
	StatPerk2        int `json:"statPerk2"`
}

// ParticipantIdentity links a participantId to the player behind it.
type ParticipantIdentity struct {
	ParticipantID int            `json:"participantId"`
	Player        PlayerIdentity `json:"player"`
}

// PlayerIdentity is the per-match player record from participantIdentities.
type PlayerIdentity struct {
	PUUID        string `json:"puuid"`
	GameName     string `json:"gameName"`
	SummonerName string `json:"summonerName"`
	TagLine      string `json:"tagLine"`
	PlatformID   string `json:"platformId"`
	ProfileIcon  int    `json:"profileIcon"`
}

// Name returns the best available display name for the player.
func (p PlayerIdentity) Name() string {
	if p.GameName != "" {
		return p.GameName
	}
	return p.SummonerName
}
