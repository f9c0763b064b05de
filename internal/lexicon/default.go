package lexicon

// defaultOrganizations are well-known public companies.
var defaultOrganizations = []string{
	"Apple", "Microsoft", "Google", "Amazon", "Facebook", "Meta", "Tesla", "Twitter",
	"Netflix", "Disney", "Walmart", "Coca-Cola", "Nike", "Samsung", "IBM", "Intel",
	"AMD", "Nvidia", "Oracle", "Salesforce", "Adobe", "Spotify", "Uber", "Lyft",
	"Airbnb", "Zoom", "TikTok", "Snapchat", "Reddit", "LinkedIn", "Pinterest",
	"PayPal", "Square", "Stripe", "Shopify", "Robinhood", "Coinbase", "SpaceX",
	"OpenAI", "Anthropic", "Roblox", "Activision", "EA", "Ubisoft", "Blizzard",
	"Toyota", "Honda", "Ford", "BMW", "Mercedes", "Volkswagen", "Audi", "Porsche",
}

// defaultPeople are widely covered public figures.
var defaultPeople = []string{
	"Elon Musk", "Bill Gates", "Tim Cook", "Mark Zuckerberg", "Jeff Bezos",
	"Joe Biden", "Donald Trump", "Kamala Harris", "Barack Obama", "Hillary Clinton",
	"Taylor Swift", "Beyonce", "Jay-Z", "Kanye West", "Rihanna", "Drake", "Adele",
	"LeBron James", "Michael Jordan", "Cristiano Ronaldo", "Lionel Messi", "Serena Williams",
	"Leonardo DiCaprio", "Tom Hanks", "Jennifer Lawrence", "Meryl Streep", "Denzel Washington",
	"Oprah Winfrey", "Ellen DeGeneres", "Jimmy Fallon", "Stephen Colbert", "Trevor Noah",
	"Warren Buffett", "Sam Altman", "Demis Hassabis", "Satya Nadella",
	"Sundar Pichai", "Andy Jassy",
}

// Default returns the built-in lexicon: organizations first, then people.
func Default() *Lexicon {
	entries := make([]Entry, 0, len(defaultOrganizations)+len(defaultPeople))
	for _, name := range defaultOrganizations {
		entries = append(entries, Entry{Name: name, Kind: KindOrganization})
	}
	for _, name := range defaultPeople {
		entries = append(entries, Entry{Name: name, Kind: KindPerson})
	}
	return New(entries...)
}
