package retrieval

// Weights blend base similarity with contextual signals in the final score.
type Weights struct {
	Similarity float64 `yaml:"similarity"`
	Homestay   float64 `yaml:"homestay"`
	Synonym    float64 `yaml:"synonym"`
}

type LexicalBonuses struct {
	QuestionSubstring float64 `yaml:"question_substring"`
	TagSubstring      float64 `yaml:"tag_substring"`
}

// TagWeights grades a single tag hit. Partial hits need token Jaccard above PartialMinSimilarity.
type TagWeights struct {
	Exact                float64 `yaml:"exact"`
	TagContainsQuery     float64 `yaml:"tag_contains_query"`
	QueryContainsTag     float64 `yaml:"query_contains_tag"`
	PartialMinSimilarity float64 `yaml:"partial_min_similarity"`
	PartialFactor        float64 `yaml:"partial_factor"`
}

type HomestayBoosts struct {
	RelatedName    float64 `yaml:"related_name"`
	RelatedCity    float64 `yaml:"related_city"`
	RelatedAmenity float64 `yaml:"related_amenity"`
	AnyName        float64 `yaml:"any_name"`
	AnyCity        float64 `yaml:"any_city"`
	Cap            float64 `yaml:"cap"`
}

type SynonymBoosts struct {
	PerGroup float64 `yaml:"per_group"`
	Cap      float64 `yaml:"cap"`
}

type Config struct {
	SimilarityThreshold float64        `yaml:"similarity_threshold"`
	MaxCandidates       int            `yaml:"max_candidates"`
	RerankTopN          int            `yaml:"rerank_top_n"`
	Weights             Weights        `yaml:"weights"`
	Lexical             LexicalBonuses `yaml:"lexical"`
	Tags                TagWeights     `yaml:"tags"`
	Homestay            HomestayBoosts `yaml:"homestay"`
	Synonym             SynonymBoosts  `yaml:"synonym"`
	SynonymGroups       [][]string     `yaml:"synonym_groups"`
	Greetings           []string       `yaml:"greetings"`
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.3,
		MaxCandidates:       10,
		RerankTopN:          3,
		Weights: Weights{
			Similarity: 0.7,
			Homestay:   0.2,
			Synonym:    0.1,
		},
		Lexical: LexicalBonuses{
			QuestionSubstring: 0.2,
			TagSubstring:      0.15,
		},
		Tags: TagWeights{
			Exact:                1.0,
			TagContainsQuery:     0.8,
			QueryContainsTag:     0.7,
			PartialMinSimilarity: 0.3,
			PartialFactor:        0.6,
		},
		Homestay: HomestayBoosts{
			RelatedName:    0.15,
			RelatedCity:    0.1,
			RelatedAmenity: 0.05,
			AnyName:        0.2,
			AnyCity:        0.1,
			Cap:            0.3,
		},
		Synonym: SynonymBoosts{
			PerGroup: 0.1,
			Cap:      0.2,
		},
		SynonymGroups: [][]string{
			{"check-in", "check in", "checkin", "入住", "办理入住"},
			{"check-out", "check out", "checkout", "退房", "办理退房"},
			{"wifi", "wi-fi", "wireless", "internet", "无线网", "网络"},
			{"parking", "car park", "停车", "车位"},
			{"breakfast", "早餐", "早饭"},
			{"price", "cost", "how much", "价格", "房价", "多少钱"},
			{"address", "location", "direction", "地址", "位置", "怎么走"},
			{"cancel", "cancellation", "refund", "取消", "退款"},
		},
		Greetings: []string{
			"hi", "hello", "hey", "hi there", "hello there",
			"good morning", "good afternoon", "good evening",
			"你好", "您好", "嗨", "哈喽", "早上好", "下午好", "晚上好", "在吗",
		},
	}
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.SimilarityThreshold < 0 || out.SimilarityThreshold >= 1 {
		out.SimilarityThreshold = def.SimilarityThreshold
	}
	if out.MaxCandidates <= 0 {
		out.MaxCandidates = def.MaxCandidates
	}
	if out.RerankTopN <= 0 {
		out.RerankTopN = def.RerankTopN
	}
	if out.Weights == (Weights{}) {
		out.Weights = def.Weights
	}
	if out.Tags == (TagWeights{}) {
		out.Tags = def.Tags
	}
	if out.Homestay.Cap <= 0 {
		out.Homestay.Cap = def.Homestay.Cap
	}
	if out.Synonym.Cap <= 0 {
		out.Synonym.Cap = def.Synonym.Cap
	}
	return out
}
