package workflow

// Order lifecycle statuses in their fixed forward order. Cancellation is a
// branch off the chain, not part of it.
const (
	StatusPending        = "pending"
	StatusConfirmed      = "confirmed"
	StatusPreparing      = "preparing"
	StatusReady          = "ready"
	StatusOutForDelivery = "out-for-delivery"
	StatusDelivered      = "delivered"
	StatusCancelled      = "cancelled"
)

// StatusOnTruck is the historical name some backend rows still carry for
// out-for-delivery.
const StatusOnTruck = "onTruck"

var Flow = []string{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

type Language string

const (
	LangEnglish  Language = "english"
	LangAmharic  Language = "amharic"
	LangTigrigna Language = "tigrigna"
)

// Config is one row of the workflow table: the single legal forward
// transition plus the presentation metadata the dashboards are driven by.
type Config struct {
	NextStatus  string
	Icon        string
	Color       string
	ButtonText  map[Language]string
	Description map[Language]string
}

var statusConfig = map[string]Config{
	StatusPending: {
		NextStatus: StatusConfirmed,
		Icon:       "⏳",
		Color:      "warning",
		ButtonText: map[Language]string{
			LangEnglish:  "Confirm Order",
			LangAmharic:  "ትዕዛዝ አረጋግጥ",
			LangTigrigna: "ኣዛዝታ ኣረጋግጹ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order received, awaiting confirmation",
			LangAmharic:  "ትዕዛዝ ተቀብሎ ማረጋገጫን ይጠብቃል",
			LangTigrigna: "ኣዛዝታ ተቐቢሉ ምርግጋጽ ይጽበ ኣሎ",
		},
	},
	StatusConfirmed: {
		NextStatus: StatusPreparing,
		Icon:       "✅",
		Color:      "info",
		ButtonText: map[Language]string{
			LangEnglish:  "Start Preparing",
			LangAmharic:  "ማዘጋጀት ጀምር",
			LangTigrigna: "ምድላው ጀምሩ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order confirmed, ready for kitchen",
			LangAmharic:  "ትዕዛዝ ተረጋግጧል፣ ለማዘጋጀት ዝግጁ ነው",
			LangTigrigna: "ኣዛዝታ ተረጋጊጹ፣ ንምድላው ድሉው እዩ",
		},
	},
	StatusPreparing: {
		NextStatus: StatusReady,
		Icon:       "👨‍🍳",
		Color:      "primary",
		ButtonText: map[Language]string{
			LangEnglish:  "Mark as Ready",
			LangAmharic:  "ዝግጁ ምልክት ያድርጉ",
			LangTigrigna: "ድሉው ከም ዝኾነ ምልክት ጌርካ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order being prepared in kitchen",
			LangAmharic:  "ትዕዛዝ በማዘጋጀት ላይ ነው",
			LangTigrigna: "ኣዛዝታ ኣብ ምድላው ኣሎ",
		},
	},
	StatusReady: {
		NextStatus: StatusOutForDelivery,
		Icon:       "📦",
		Color:      "success",
		ButtonText: map[Language]string{
			LangEnglish:  "Assign for Delivery",
			LangAmharic:  "ለመላክ አድርግ",
			LangTigrigna: "ንምድራይ ኣውፅእ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order ready for pickup/delivery",
			LangAmharic:  "ትዕዛዝ ለመውሰድ/ለመላክ ዝግጁ ነው",
			LangTigrigna: "ኣዛዝታ ንምውሳድ/ምድራይ ድሉው እዩ",
		},
	},
	StatusOutForDelivery: {
		NextStatus: StatusDelivered,
		Icon:       "🚚",
		Color:      "secondary",
		ButtonText: map[Language]string{
			LangEnglish:  "Mark as Delivered",
			LangAmharic:  "የተደረሰ ምልክት ያድርጉ",
			LangTigrigna: "ዝተደርሰ ከም ዝኾነ ምልክት ጌርካ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order is out for delivery",
			LangAmharic:  "ትዕዛዝ በመላክ ላይ ነው",
			LangTigrigna: "ኣዛዝታ ኣብ ምድራይ ኣሎ",
		},
	},
	StatusDelivered: {
		Icon:  "🎉",
		Color: "completed",
		ButtonText: map[Language]string{
			LangEnglish:  "Delivered",
			LangAmharic:  "የተደረሰ",
			LangTigrigna: "ዝተደርሰ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order successfully delivered",
			LangAmharic:  "ትዕዛዝ በተሳካ ሁኔታ ተደርሷል",
			LangTigrigna: "ኣዛዝታ ብንጽህና ተደርሱ",
		},
	},
	StatusCancelled: {
		Icon:  "❌",
		Color: "danger",
		ButtonText: map[Language]string{
			LangEnglish:  "Cancelled",
			LangAmharic:  "የተሰረዘ",
			LangTigrigna: "ዝተሰርዐ",
		},
		Description: map[Language]string{
			LangEnglish:  "Order has been cancelled",
			LangAmharic:  "ትዕዛዝ ተሰርዟል",
			LangTigrigna: "ኣዛዝታ ተሰርዑ",
		},
	},
}

// Lookup returns the workflow row for a status. Unknown statuses have no row:
// the dashboards render no action for them instead of guessing.
func Lookup(status string) (Config, bool) {
	cfg, ok := statusConfig[Normalize(status)]
	return cfg, ok
}

// Next returns the single legal forward transition, or false when the status
// is terminal or unknown.
func Next(status string) (string, bool) {
	cfg, ok := statusConfig[Normalize(status)]
	if !ok || cfg.NextStatus == "" {
		return "", false
	}
	return cfg.NextStatus, true
}

// IsTerminal reports whether a status has no outgoing transitions. Unknown
// statuses are not terminal (they aggregate as pending) but still offer no
// forward action; callers that need that distinction use Next.
func IsTerminal(status string) bool {
	s := Normalize(status)
	return s == StatusDelivered || s == StatusCancelled
}

// CanCancel reports whether the cancellation branch is reachable.
func CanCancel(status string) bool {
	return !IsTerminal(status)
}

// CanTransition reports whether from→to is the legal forward step or the
// cancellation branch.
func CanTransition(from, to string) bool {
	if to == StatusCancelled {
		return CanCancel(from)
	}
	next, ok := Next(from)
	return ok && next == to
}

// Known reports whether the status is one of the enumerated values.
func Known(status string) bool {
	_, ok := statusConfig[Normalize(status)]
	return ok
}

// Normalize maps the legacy onTruck spelling onto out-for-delivery and leaves
// everything else alone.
func Normalize(status string) string {
	if status == StatusOnTruck {
		return StatusOutForDelivery
	}
	return status
}

// Bucket returns the stats bucket a status counts under: its own when known,
// pending otherwise.
func Bucket(status string) string {
	s := Normalize(status)
	if _, ok := statusConfig[s]; ok {
		return s
	}
	return StatusPending
}
