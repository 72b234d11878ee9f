package ingest

import (
	"sort"
	"time"

	"lolstats/internal/lcu"
	"lolstats/internal/store"
)

// Normalize flattens one match record into its relational entities. It never
// fails: missing optional fields are already zero-valued on the wire structs,
// and a participant with no matching identity becomes a row with an empty
// puuid rather than being dropped.
func Normalize(d lcu.MatchDetail) store.MatchBundle {
	bundle := store.MatchBundle{
		Match: store.Match{
			GameID:       d.GameID,
			GameCreation: creationTime(d.MatchSummary),
			DurationSec:  d.GameDuration,
			QueueID:      d.QueueID,
			MapID:        d.MapID,
			GameMode:     d.GameMode,
			GameType:     d.GameType,
			GameVersion:  d.GameVersion,
			IsFallback:   d.IsFallback,
		},
	}

	// Identity lookup built once per match; everything player-related
	// resolves through it.
	identities := make(map[int]lcu.PlayerIdentity, len(d.ParticipantIdentities))
	for _, ident := range d.ParticipantIdentities {
		identities[ident.ParticipantID] = ident.Player
	}

	seenPlayers := make(map[string]bool)
	for _, ident := range d.ParticipantIdentities {
		player := ident.Player
		if player.PUUID == "" || seenPlayers[player.PUUID] {
			continue
		}
		seenPlayers[player.PUUID] = true
		bundle.Players = append(bundle.Players, store.Player{
			PUUID:        player.PUUID,
			SummonerName: player.Name(),
			TagLine:      player.TagLine,
			PlatformID:   player.PlatformID,
			ProfileIcon:  player.ProfileIcon,
		})
	}

	if len(d.Teams) > 0 {
		for _, t := range d.Teams {
			bundle.Teams = append(bundle.Teams, normalizeTeam(d.GameID, t))
		}
	} else {
		// Fallback summaries can lack the team section entirely. Synthesize
		// team rows from the participants so every participant's teamId
		// references a row in the same match.
		bundle.Teams = synthesizeTeams(d.GameID, d.Participants)
	}

	for _, p := range d.Participants {
		row := normalizeParticipant(d.GameID, p)
		if ident, ok := identities[p.ParticipantID]; ok {
			row.PUUID = ident.PUUID
		}
		bundle.Participants = append(bundle.Participants, row)
	}

	return bundle
}

// creationTime prefers the RFC3339 gameCreationDate string; older payloads
// only carry epoch-millis gameCreation.
func creationTime(g lcu.MatchSummary) time.Time {
	if g.GameCreationDate != "" {
		if t, err := time.Parse(time.RFC3339, g.GameCreationDate); err == nil {
			return t
		}
	}
	if g.GameCreation > 0 {
		return time.UnixMilli(g.GameCreation).UTC()
	}
	return time.Time{}
}

func normalizeTeam(gameID int64, t lcu.TeamData) store.Team {
	// The source encodes win/loss as the strings "Win"/"Fail". Anything
	// other than the exact literal "Win" is a loss.
	bans := make([]lcu.BanData, len(t.Bans))
	copy(bans, t.Bans)
	sort.SliceStable(bans, func(i, j int) bool { return bans[i].PickTurn < bans[j].PickTurn })

	banIDs := make([]int, 0, len(bans))
	for _, b := range bans {
		banIDs = append(banIDs, b.ChampionID)
	}

	return store.Team{
		GameID:          gameID,
		TeamID:          t.TeamID,
		Win:             t.Win == "Win",
		FirstBlood:      t.FirstBlood,
		FirstTower:      t.FirstTower,
		FirstDragon:     t.FirstDragon,
		FirstBaron:      t.FirstBaron,
		FirstInhibitor:  t.FirstInhibitor,
		FirstRiftHerald: t.FirstRiftHerald,
		TowerKills:      t.TowerKills,
		InhibitorKills:  t.InhibitorKills,
		DragonKills:     t.DragonKills,
		BaronKills:      t.BaronKills,
		RiftHeraldKills: t.RiftHeraldKills,
		Bans:            banIDs,
	}
}

// synthesizeTeams derives minimal team rows from the participants' teamIds.
// Win comes from the per-participant stat block; objective fields stay at
// their defaults, which fallback rows are allowed to leave unset.
func synthesizeTeams(gameID int64, participants []lcu.ParticipantData) []store.Team {
	teams := make(map[int]store.Team)
	order := make([]int, 0, 2)

	for _, p := range participants {
		if p.TeamID == 0 {
			continue
		}
		if _, ok := teams[p.TeamID]; !ok {
			order = append(order, p.TeamID)
			teams[p.TeamID] = store.Team{
				GameID: gameID,
				TeamID: p.TeamID,
				Win:    p.Stats.Win,
				Bans:   []int{},
			}
		}
	}

	out := make([]store.Team, 0, len(order))
	for _, id := range order {
		out = append(out, teams[id])
	}
	return out
}

func normalizeParticipant(gameID int64, p lcu.ParticipantData) store.Participant {
	s := p.Stats
	return store.Participant{
		GameID:        gameID,
		ParticipantID: p.ParticipantID,
		TeamID:        p.TeamID,
		ChampionID:    p.ChampionID,
		Spell1ID:      p.Spell1ID,
		Spell2ID:      p.Spell2ID,
		Lane:          p.Timeline.Lane,
		Role:          p.Timeline.Role,
		ChampLevel:    s.ChampLevel,

		Kills:   s.Kills,
		Deaths:  s.Deaths,
		Assists: s.Assists,

		DmgTotal:        s.TotalDamageDealtToChampions,
		DmgMagic:        s.MagicDamageDealtToChampions,
		DmgPhys:         s.PhysicalDamageDealtToChampions,
		DmgTrue:         s.TrueDamageDealtToChampions,
		TakenTotal:      s.TotalDamageTaken,
		TakenMagic:      s.MagicalDamageTaken,
		TakenPhys:       s.PhysicalDamageTaken,
		TakenTrue:       s.TrueDamageTaken,
		HealTotal:       s.TotalHeal,
		UnitsHealed:     s.TotalUnitsHealed,
		ShieldTeammates: s.TotalShieldedOnTeammates,
		CCTimeSec:       s.TimeCCingOthers,

		VisionScore:   s.VisionScore,
		WardsPlaced:   s.WardsPlaced,
		WardsKilled:   s.WardsKilled,
		DetectorWards: s.VisionWardsBoughtInGame,

		GoldEarned:    s.GoldEarned,
		GoldSpent:     s.GoldSpent,
		MinionsKilled: s.TotalMinionsKilled,
		JungleCS:      s.NeutralMinionsKilled,

		Item0: s.Item0,
		Item1: s.Item1,
		Item2: s.Item2,
		Item3: s.Item3,
		Item4: s.Item4,
		Item5: s.Item5,
		Item6: s.Item6,

		PrimaryStyleID: s.PerkPrimaryStyle,
		SubStyleID:     s.PerkSubStyle,
		Perk0:          s.Perk0,
		Perk1:          s.Perk1,
		Perk2:          s.Perk2,
		Perk3:          s.Perk3,
		Perk4:          s.Perk4,
		Perk5:          s.Perk5,
		StatPerk0:      s.StatPerk0,
		StatPerk1:      s.StatPerk1,
		StatPerk2:      s.StatPerk2,

		Win: s.Win,
	}
}
