package catalog

// Category names of the built-in catalog.
const (
	GeneralNews      = "general_news"
	Technology       = "technology"
	Finance          = "finance"
	Science          = "science"
	Entertainment    = "entertainment"
	CompanySpecifics = "company_specifics"
)

func defaultCategories() []Category {
	return []Category{
		{
			Name:        GeneralNews,
			Description: "General news outlets",
			Domains: []string{
				"reuters.com", "bbc.com", "cnn.com", "tass.ru", "ria.ru",
				"kommersant.ru", "vedomosti.ru", "gazeta.ru", "rbc.ru", "interfax.ru",
			},
		},
		{
			Name:        Technology,
			Description: "Technology press and official company sites",
			Domains: []string{
				"techcrunch.com", "theverge.com", "arstechnica.com", "wired.com", "venturebeat.com",
				"blog.discord.com", "discord.com", "blog.google.com", "microsoft.com", "apple.com",
				"meta.com", "openai.com", "github.blog", "stackoverflow.blog", "reddit.com",
				"twitter.com", "x.com",
			},
		},
		{
			Name:        Finance,
			Description: "Financial sources",
			Domains: []string{
				"bloomberg.com", "reuters.com", "wsj.com", "ft.com", "marketwatch.com",
				"investing.com", "yahoo.com", "cbr.ru", "moex.com",
			},
		},
		{
			Name:        Science,
			Description: "Scientific sources",
			Domains: []string{
				"nature.com", "science.org", "pubmed.ncbi.nlm.nih.gov", "arxiv.org",
				"who.int", "cdc.gov", "fda.gov", "nih.gov",
			},
		},
		{
			Name:        Entertainment,
			Description: "Entertainment and media",
			Domains: []string{
				"variety.com", "hollywoodreporter.com", "deadline.com", "entertainment.com",
				"imdb.com", "rottentomatoes.com",
			},
		},
		{
			Name:        CompanySpecifics,
			Description: "Official sites detected from company mentions",
			AutoDetect:  true,
			Patterns: []CompanyPattern{
				{Company: "discord", Domains: []string{"blog.discord.com", "discord.com", "support.discord.com"}},
				{Company: "google", Domains: []string{"blog.google.com", "support.google.com", "developers.google.com"}},
				{Company: "microsoft", Domains: []string{"microsoft.com", "techcommunity.microsoft.com", "devblogs.microsoft.com"}},
				{Company: "apple", Domains: []string{"apple.com", "developer.apple.com", "support.apple.com"}},
				{Company: "meta", Domains: []string{"meta.com", "about.fb.com", "blog.whatsapp.com"}},
				{Company: "openai", Domains: []string{"openai.com", "help.openai.com"}},
				{Company: "github", Domains: []string{"github.blog", "github.com", "docs.github.com"}},
				{Company: "reddit", Domains: []string{"reddit.com", "redditinc.com"}},
				{Company: "twitter", Domains: []string{"blog.twitter.com", "help.twitter.com", "x.com"}},
				{Company: "telegram", Domains: []string{"telegram.org", "core.telegram.org"}},
				{Company: "youtube", Domains: []string{"youtube.com", "creators.youtube.com"}},
				{Company: "netflix", Domains: []string{"about.netflix.com", "media.netflix.com"}},
				{Company: "amazon", Domains: []string{"press.aboutamazon.com", "aws.amazon.com"}},
				{Company: "tesla", Domains: []string{"tesla.com", "ir.tesla.com"}},
			},
		},
	}
}

// topicRule adds a category's domains when any keyword occurs in the lower-cased text.
type topicRule struct {
	category string
	keywords []string
	hints    []string
}

var companyKeywords = []string{
	"discord", "google", "microsoft", "apple", "meta", "openai",
	"github", "reddit", "twitter", "telegram", "youtube", "netflix",
	"amazon", "tesla", "facebook", "instagram", "whatsapp",
}

var topicRules = []topicRule{
	{
		category: Technology,
		keywords: companyKeywords,
		hints:    []string{Technology},
	},
	{
		category: Finance,
		keywords: []string{
			"курс", "доллар", "рубль", "биткоин", "акции", "биржа", "банк",
			"инфляция", "экономика", "финансы", "инвестиции", "цб",
			"dollar", "ruble", "bitcoin", "stock", "exchange rate", "bank", "inflation", "economy",
		},
		hints: []string{Finance},
	},
	{
		category: Science,
		keywords: []string{
			"исследование", "наука", "ученые", "медицина", "вакцина", "лечение",
			"covid", "вирус", "болезнь", "препарат",
			"study", "research", "scientists", "vaccine", "virus",
		},
		hints: []string{Science},
	},
	{
		category: Entertainment,
		keywords: []string{
			"фильм", "сериал", "актер", "режиссер", "кино", "голливуд",
			"премия", "оскар", "спектакль", "концерт",
			"movie", "film", "series", "actor", "hollywood", "oscar", "concert",
		},
		hints: []string{Entertainment, "развлечения"},
	},
}
