package settings

import "github.com/leadchat/leadchat-platform/internal/gateway"

// Question is one structured prompt collected before free-form chat
// begins. Position in the settings' questions slice determines order.
type Question struct {
	Type        string   `json:"type"` // "text", "buttons", "card"
	Label       string   `json:"label"`
	Buttons     []string `json:"buttons,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	// Key names the collected answer so later labels can reference it
	// with a #key placeholder token.
	Key string `json:"key,omitempty"`
}

// Settings is the single widget configuration record. It is mutated
// wholesale via merge-with-partial and never partially validated.
type Settings struct {
	ChatWidth          string `json:"chat_width"`
	BackgroundImageURL string `json:"backgroundImageUrl"`

	WebhookURL         string `json:"webhookUrl"`
	ChatWebhookURL     string `json:"chatWebhookUrl"`
	SettingsWebhookURL string `json:"settingsWebhookUrl"`
	SummaryWebhookURL  string `json:"summaryWebhookUrl"`

	OpenAIAPIKey string `json:"openaiApiKey"`

	Products []string `json:"products"`

	PrimaryColor    string `json:"primaryColor"`
	SecondaryColor  string `json:"secondaryColor"`
	TextColor       string `json:"textColor"`
	BackgroundColor string `json:"backgroundColor"`
	FontFamily      string `json:"fontFamily"`
	FontSize        string `json:"fontSize"`

	WelcomeMessage  string `json:"welcomeMessage"`
	ChatTitle       string `json:"chatTitle"`
	ChatIcon        string `json:"chatIcon"`
	BotName         string `json:"botName"`
	UserPlaceholder string `json:"userPlaceholder"`

	// Admin bypass credential pair. Both empty disables the bypass.
	AdminName  string `json:"adminName"`
	AdminPhone string `json:"adminPhone"`

	ShowCredit bool   `json:"showCredit"`
	CreditText string `json:"creditText"`
	CreditURL  string `json:"creditUrl"`

	Questions []Question `json:"questions"`
}

// Defaults returns the compiled-in settings record. All webhook URLs
// start at their sentinel values, meaning "not configured".
func Defaults() Settings {
	return Settings{
		ChatWidth:          "600px",
		BackgroundImageURL: "",

		WebhookURL:         gateway.SentinelLeadURL,
		ChatWebhookURL:     gateway.SentinelChatURL,
		SettingsWebhookURL: gateway.SentinelSettingsURL,
		SummaryWebhookURL:  gateway.SentinelSummaryURL,

		OpenAIAPIKey: "",

		Products: []string{"מוצר 1", "מוצר 2", "מוצר 3"},

		PrimaryColor:    "#2563eb",
		SecondaryColor:  "#6b7280",
		TextColor:       "#1f2937",
		BackgroundColor: "#ffffff",
		FontFamily:      "system-ui, -apple-system, sans-serif",
		FontSize:        "14px",

		WelcomeMessage:  "שלום! איך אני יכול לעזור לך היום?",
		ChatTitle:       "צ'אטבוט",
		ChatIcon:        "💬",
		BotName:         "עוזר",
		UserPlaceholder: "הקלד הודעה...",

		AdminName:  "",
		AdminPhone: "",

		ShowCredit: true,
		CreditText: "Powered by ChatBot Builder",
		CreditURL:  "https://example.com",

		Questions: []Question{
			{Type: "text", Label: "היי! נעים להכיר 😊 איך קוראים לך?", Key: "name"},
			{Type: "text", Label: "אשמח גם למספר הטלפון שלך, כדי שנוכל לחזור אליך אם נצטרך 📞", Key: "phone"},
			{Type: "buttons", Label: "באיזה מוצר או שירות שלנו אתה הכי מתעניין? 📦", Buttons: []string{"אוטומציה", "צ'אטבוט", "מערכות ניהול"}, Key: "product"},
		},
	}
}
