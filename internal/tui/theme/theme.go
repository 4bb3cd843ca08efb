package theme

import "github.com/charmbracelet/lipgloss"

var (
	BaseBg       = lipgloss.Color("#11111b")
	PanelBg      = lipgloss.Color("#1e1e2e")
	SurfaceBg    = lipgloss.Color("#313244")
	Accent       = lipgloss.Color("#cba6f7")
	Accent2      = lipgloss.Color("#89b4fa")
	Teal         = lipgloss.Color("#94e2d5")
	Peach        = lipgloss.Color("#fab387")
	SuccessColor = lipgloss.Color("#a6e3a1")
	WarnColor    = lipgloss.Color("#f9e2af")
	ErrorColor   = lipgloss.Color("#f38ba8")
	TextColor    = lipgloss.Color("#cdd6f4")
	SubTextColor = lipgloss.Color("#a6adc8")
	DimColor     = lipgloss.Color("#6c7086")
	OverlayColor = lipgloss.Color("#45475a")
	Flamingo     = lipgloss.Color("#f5c2e7")
	Lavender     = lipgloss.Color("#b4befe")
)

const (
	IconTable     = ""
	IconAscending = "▲"
	IconDesc      = "▼"
	IconChecked   = "✔"
	IconLoading   = "…"
	IconReadonly  = ""
	IconRecent    = ""
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
	SectionStyle = lipgloss.NewStyle().
			Foreground(Accent2).
			Bold(true)
	TextStyle = lipgloss.NewStyle().
			Foreground(TextColor)
	SubTextStyle = lipgloss.NewStyle().
			Foreground(SubTextColor)
	DimStyle = lipgloss.NewStyle().
			Foreground(DimColor)
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)
	WarnStyle = lipgloss.NewStyle().
			Foreground(WarnColor)
	ModalStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(Accent)
	KeyStyle = lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true)
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(OverlayColor)
)

// Table styles.
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(Accent2).
			Bold(true)
	ReadonlyHeaderStyle = lipgloss.NewStyle().
				Foreground(SubTextColor)
	SortBadgeStyle = lipgloss.NewStyle().
			Foreground(Peach).
			Bold(true)
	CellStyle = lipgloss.NewStyle().
			Foreground(TextColor)
	CurrentRowStyle = lipgloss.NewStyle().
			Background(PanelBg).
			Foreground(TextColor)
	SelectedCellStyle = lipgloss.NewStyle().
				Background(SurfaceBg).
				Foreground(Teal).
				Bold(true)
	EditingCellStyle = lipgloss.NewStyle().
				Background(Accent).
				Foreground(BaseBg)
	EchoedCellStyle = lipgloss.NewStyle().
			Foreground(WarnColor).
			Italic(true)
	DeletedRowStyle = lipgloss.NewStyle().
			Foreground(DimColor).
			Strikethrough(true)
	LoadingStyle = lipgloss.NewStyle().
			Foreground(OverlayColor)
	SuggestionStyle = lipgloss.NewStyle().
			Background(SurfaceBg).
			Foreground(SubTextColor)
	SuggestionSelectedStyle = lipgloss.NewStyle().
				Background(SurfaceBg).
				Foreground(Teal).
				Bold(true)
	FocusedInputStyle = lipgloss.NewStyle().
				Foreground(Accent)
	ButtonStyle = lipgloss.NewStyle().
			Foreground(SubTextColor).
			Padding(0, 1)
	ButtonActiveStyle = lipgloss.NewStyle().
				Background(Accent).
				Foreground(BaseBg).
				Bold(true).
				Padding(0, 1)
)

var GridLogo = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true).Render("▦ ") +
	lipgloss.NewStyle().Foreground(Flamingo).Bold(true).Render("remote") +
	lipgloss.NewStyle().Foreground(Accent).Bold(true).Render("gr") +
	lipgloss.NewStyle().Foreground(Accent2).Bold(true).Render("id")
