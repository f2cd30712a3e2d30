package game

// Presentation tables. Effects never depend on which line is drawn.

var teamActivities = []string{
	"Escape room. The team escaped in 45 minutes. Dave still hasn't found the key.",
	"Retro with actual action items. Historic first.",
	"Pizza Friday. The vegans got real pizza this time.",
	"Board game night. Someone flipped the Settlers of Catan board.",
	"Karaoke night. The CTO did Bohemian Rhapsody. Twice.",
	"Hackathon! Three projects started. Zero will ship. Classic.",
	"Team lunch at that place everyone pretends to like.",
	"Virtual escape room. Two people were on mute the entire time.",
}

var observabilityLevels = map[int]string{
	1:  "basic logs (console.log everywhere)",
	2:  "structured logging (fancy)",
	3:  "metrics + dashboards (Grafana shrine installed)",
	4:  "distributed tracing (you can follow a request through the void)",
	5:  "full observability stack (you see the Matrix)",
	6:  "predictive alerting (alerts before incidents)",
	7:  "AIOps integration (the robots are helping)",
	8:  "custom SLI tracking (nerd level: expert)",
	9:  "chaos-aware observability (inception-level monitoring)",
	10: "omniscience (you can see production dreams)",
}

func observabilityFlavor(level int) string {
	if s, ok := observabilityLevels[level]; ok {
		return s
	}
	return "enlightenment"
}

var outageSeverityLines = map[int]string{
	1: "Minor blip. Only the most paranoid customers noticed.",
	2: "Significant degradation. Twitter is asking questions.",
	3: "Major outage. The CEO is calling. Don't answer.",
	4: "Total catastrophe. Someone is updating their resume mid-incident.",
}

var mttrByLevel = []string{
	"6 hours (we guessed)",
	"4 hours",
	"2 hours",
	"45 minutes",
	"20 minutes",
	"12 minutes",
	"8 minutes",
	"5 minutes",
	"3 minutes",
	"90 seconds",
	"47 seconds (new record)",
}

func mttrFor(level int) string {
	return mttrByLevel[clampInt(level, 0, len(mttrByLevel)-1)]
}

var outageCauses = []string{
	"A config change that 'definitely wasn't supposed to go to prod'",
	"Someone ran DROP TABLE in the wrong terminal",
	"The intern pushed to main. Again",
	"Memory leak that's been there since 2021",
	"Certificate expired. No one set a reminder",
	"DNS. It's always DNS",
	"A dependency updated and broke everything",
	"The database decided it needed a holiday",
	"Auto-scaling went the wrong way",
	"Someone's cron job went rogue",
}

var quitLines = []string{
	"[WARN] Engineer handed in their resignation. Their Slack status reads 'Gone fishing. Forever.'",
	"[WARN] Senior engineer quit. Said something about 'work-life balance' and 'not being paged at 3am on Christmas.'",
	"[WARN] Engineer left for a FAANG. Can't compete with that RSU package, honestly.",
	"[WARN] Your lead SRE rage-quit after being paged too many times this sprint. Last commit message: 'I am free.'",
	"[WARN] An engineer left. Their exit interview was just a link to their LinkedIn profile.",
	"[WARN] Developer departed. They mass-deleted their Slack messages. Ominous.",
	"[WARN] Engineer quit to 'start a podcast about engineering culture.' You've created a monster.",
}

var competitorLines = []string{
	"CompetitorCorp just launched a feature you've had on the roadmap for 6 months",
	"A YC startup just demo'd exactly what you're building, but with AI",
	"AWS just announced a managed version of your product. Classic",
	"Some kid on GitHub built your core product as a weekend project",
	"A competitor raised $100M. Their product is worse but their marketing is terrifying",
}

var cloudProviders = []string{"AWS", "GCP", "Azure", "Cloudflare", "Heroku"}

var cloudFailures = []string{
	"had a region-wide outage",
	"lost an availability zone",
	"had a networking partition",
	"deployed a bad update to their control plane",
	"had an S3-level event (again)",
}

var complianceRegimes = []string{"SOC 2", "GDPR", "HIPAA", "PCI DSS", "ISO 27001"}

var hnWrappedTech = []string{"Redis", "Postgres", "curl"}
