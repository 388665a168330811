// Package pattern is the terminal fallback: a deterministic keyword
// classifier over a curated response table. It must answer every input,
// including empty strings, and never fail.
package pattern

import (
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/wisdom-keeper/backend/internal/persona"
)

type Category string

const (
	CategoryGreeting   Category = "greeting"
	CategorySkills     Category = "skills"
	CategoryExperience Category = "experience"
	CategoryProjects   Category = "projects"
	CategoryContact    Category = "contact"
	CategoryEducation  Category = "education"
	CategoryDefault    Category = "default"
)

type rule struct {
	category Category
	pattern  *regexp.Regexp
}

// Evaluation order matters: broader rules later so they cannot steal intents.
var rules = []rule{
	// Short greeting tokens are word-bounded so "hi" cannot fire inside
	// "machine" or "his".
	{CategoryGreeting, regexp.MustCompile(`\b(hello|hi|hey)\b|greetings|welcome|start`)},
	{CategorySkills, regexp.MustCompile(`skill|technology|programming|languages|python|react|ai|ml|machine learning|typescript`)},
	{CategoryExperience, regexp.MustCompile(`experience|work|job|career|employment|role|position|sierraedge`)},
	{CategoryProjects, regexp.MustCompile(`project|repository|github|code|portfolio|motivhater|insurance|rental`)},
	{CategoryContact, regexp.MustCompile(`contact|email|phone|reach|linkedin|github|communication`)},
	{CategoryEducation, regexp.MustCompile(`education|degree|study|college|university|b\.?tech|aditya`)},
}

// Specific detectors run before any category rule so high-value answers stay
// deterministic instead of being randomized from a pool.
var (
	phonePattern    = regexp.MustCompile(`phone|mobile|call|dial`)
	emailPattern    = regexp.MustCompile(`email|mail id|gmail|e-mail`)
	locationPattern = regexp.MustCompile(`location|where.*(live|based|from|located)|city|address`)
)

const (
	phoneAnswer    = "Hearken, seeker! To summon the Code-Bearer by voice, call upon " + persona.ContactPhone + "."
	emailAnswer    = "Seek audience through the mystical scroll of " + persona.ContactEmail + ", and the Code-Bearer shall answer."
	locationAnswer = "The Code-Bearer dwells in the bustling realm of " + persona.ContactCity + ", reachable through many mystical channels."
)

var responses = map[Category][]string{
	CategoryGreeting: {
		"Greetings, noble seeker! I am the guardian of Yaswanth's knowledge. What wisdom dost thou seek?",
		"Ah, a visitor approaches! Welcome to the realm of the Code-Bearer. How may this humble sage assist thee?",
		"Hail and well met! Thou standest before the archives of Yaswanth's journey. Speak thy query!",
	},
	CategorySkills: {
		"Behold! The sacred arts mastered by Yaswanth: Python (95% mastery), Machine Learning (90%), React (85%), and TypeScript (80%). Each skill forged in the fires of countless coding battles!",
		"The Code-Bearer wields many mystical powers: AI/ML engineering, full-stack development, data science, and the ancient art of turning coffee into code!",
		"His arsenal includes Python for AI sorcery, React for weaving digital tapestries, and Machine Learning for divining patterns from data's chaos!",
	},
	CategoryExperience: {
		"Currently, Yaswanth serves as AI Application Engineer at SierraEdge Pvt Ltd in Bengaluru since April 2024. He hath also walked the path of freelance development since 2023!",
		"His journey spans the realms of AI engineering, data science internships, and freelance conquests. Each role honing his skills in the mystical arts of code!",
		"From the halls of SierraEdge to the battlefields of freelance projects, he hath proven his worth in AI, web development, and data mastery!",
	},
	CategoryProjects: {
		"Witness his legendary quests! MotivHater (productivity with humor), Insurance Claim Prediction (ML prophecy), RentalTruth-Scrapper (data harvesting), and many more repositories of power!",
		"His GitHub realm contains 20+ sacred repositories, each telling tales of conquered challenges in AI, web development, and data analysis!",
		"From facial emotion recognition to portfolio mastery, his projects span the realms of machine learning, web scraping, and full-stack development!",
	},
	CategoryContact: {
		"Seek audience with the Code-Bearer through mystical channels: ampoluyaswanth2002@gmail.com, or summon him via +91 6305151728. His digital presence dwells on GitHub and LinkedIn!",
		"The sacred scrolls of communication: Email for formal discourse, GitHub for code fellowship, LinkedIn for professional quests, or phone for urgent summons!",
		"Located in the bustling realm of Bengaluru, India, he remains reachable through multiple mystical channels of modern communication!",
	},
	CategoryEducation: {
		"He earned his B.Tech in Information Technology from Aditya Institute with CGPA 8.5/10, completing his academic quest in 2024 with honors in AI and web mastery!",
		"His educational journey includes B.Tech IT (8.5 CGPA), Intermediate (94%), and 10th grade (92%) - each milestone marking his ascension in the realm of knowledge!",
		"Formally trained in the mystical arts at Aditya Institute of Technology and Management, specializing in AI, ML, and the sacred sciences of software development!",
	},
	CategoryDefault: {
		"Thy query puzzles this humble sage. Perhaps thou seekest knowledge of skills, experience, projects, or contact details? Speak more clearly, noble visitor!",
		"The ancient scrolls are unclear on this matter. Ask me about Yaswanth's skills, work experience, projects, education, or how to reach him!",
		"This knowledge lies beyond my current understanding. Try asking about his AI expertise, development skills, professional journey, or ways to connect!",
	},
}

// Responder answers any input from the curated table.
type Responder struct {
	rng *rand.Rand
}

// NewResponder builds a responder around the given random source. A nil
// source gets a time-seeded one.
func NewResponder(rng *rand.Rand) *Responder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Responder{rng: rng}
}

// Respond returns a non-empty answer for any input. Specific detectors
// (phone, email, location) win over category rules.
func (r *Responder) Respond(input string) string {
	normalized := normalize(input)

	if phonePattern.MatchString(normalized) {
		return phoneAnswer
	}
	if emailPattern.MatchString(normalized) {
		return emailAnswer
	}
	if locationPattern.MatchString(normalized) {
		return locationAnswer
	}

	return r.pick(r.Classify(input))
}

// Classify maps input to a category; the default category is the catch-all.
func (r *Responder) Classify(input string) Category {
	normalized := normalize(input)

	for _, rule := range rules {
		if rule.pattern.MatchString(normalized) {
			return rule.category
		}
	}

	return CategoryDefault
}

func (r *Responder) pick(category Category) string {
	pool, ok := responses[category]
	if !ok || len(pool) == 0 {
		pool = responses[CategoryDefault]
	}
	return pool[r.rng.Intn(len(pool))]
}

// Responses exposes the pool for a category so tests can assert membership.
func Responses(category Category) []string {
	pool := responses[category]
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}

func normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
