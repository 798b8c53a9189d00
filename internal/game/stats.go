package game

// RunStats aggregates a run from its events.
type RunStats struct {
	Ticks          uint64         `json:"ticks"`
	Kills          int            `json:"kills"`
	Headshots      int            `json:"headshots"`
	KillsByType    map[string]int `json:"killsByType"`
	ShotsFired     int            `json:"shotsFired"`
	BulletHits     int            `json:"bulletHits"`
	DamageDealt    float64        `json:"damageDealt"`
	DamageTaken    float64        `json:"damageTaken"`
	DamageAbsorbed float64        `json:"damageAbsorbed"`
	MultiKills     int            `json:"multiKills"`
	BestMultiKill  int            `json:"bestMultiKill"`
	GrenadesThrown int            `json:"grenadesThrown"`
	CratesPicked   int            `json:"cratesPicked"`
	CashCollected  int            `json:"cashCollected"`
	Containers     int            `json:"containersSearched"`
	StacksLooted   int            `json:"stacksLooted"`
	Dodges         int            `json:"dodges"`
	Heals          int            `json:"heals"`
	HealedHP       float64        `json:"healedHp"`
	Reloads        map[string]int `json:"reloads"` // Completed reloads by tier
	CratesBroken   int            `json:"cratesBroken"`
	HighestWave    int            `json:"highestWave"`
}

func newRunStats() RunStats {
	return RunStats{
		KillsByType: map[string]int{},
		Reloads:     map[string]int{},
		HighestWave: 1,
	}
}

// Accuracy is bullet hits per shot fired, 0 before the first shot.
func (s RunStats) Accuracy() float64 {
	if s.ShotsFired == 0 {
		return 0
	}
	return float64(s.BulletHits) / float64(s.ShotsFired)
}

// Clone returns a copy with its own maps.
func (s RunStats) Clone() RunStats {
	c := s
	c.KillsByType = make(map[string]int, len(s.KillsByType))
	for k, v := range s.KillsByType {
		c.KillsByType[k] = v
	}
	c.Reloads = make(map[string]int, len(s.Reloads))
	for k, v := range s.Reloads {
		c.Reloads[k] = v
	}
	return c
}

// aggregateStats folds this tick's events into the run statistics.
func (g *Game) aggregateStats() {
	w := g.State
	s := &w.Stats
	if s.KillsByType == nil {
		s.KillsByType = map[string]int{}
	}
	if s.Reloads == nil {
		s.Reloads = map[string]int{}
	}
	s.Ticks = w.Tick

	for _, ev := range w.Events {
		switch p := ev.Payload.(type) {
		case PlayerFired:
			s.ShotsFired += p.Pellets
		case EnemyHit:
			s.DamageDealt += p.Damage
			if p.Source == "bullet" {
				s.BulletHits++
			}
		case EnemyKilled:
			s.Kills++
			s.KillsByType[p.EnemyType]++
			if p.Headshot {
				s.Headshots++
			}
		case MultiKill:
			s.MultiKills++
			s.BestMultiKill = max(s.BestMultiKill, p.Count)
		case PlayerHit:
			s.DamageTaken += p.Damage
			s.DamageAbsorbed += p.Absorbed
		case GrenadeThrown:
			s.GrenadesThrown++
		case CratePicked:
			s.CratesPicked++
		case CashPicked:
			s.CashCollected += p.Value
		case SearchComplete:
			s.Containers++
		case LootTaken:
			s.StacksLooted += p.Stacks
		case Dodge:
			s.Dodges++
		case HealComplete:
			s.Heals++
			s.HealedHP += p.Amount
		case ReloadComplete:
			s.Reloads[p.Tier.String()]++
		case DestructibleDestroyed:
			s.CratesBroken++
		case WaveAdvanced:
			s.HighestWave = max(s.HighestWave, p.Wave)
		}
	}
}
