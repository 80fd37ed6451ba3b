package emotion

// ----------------------------------------------------------------------
// 感情キーワード表
// ----------------------------------------------------------------------

// DefaultTable は台詞から感情を推定するための既定キーワード表です。
// 並び順は同点時の優先順位を兼ねます (先に宣言されたものが勝つ)。
// ラベルは VOICEVOX のスタイル名に部分一致させるため、スタイル名と同じ表記にしています。
var DefaultTable = Table{
	{Label: "あまあま", Keywords: []string{"好き", "大好き", "愛して", "かわいい", "可愛い", "ありがと", "一緒に", "♡", "❤"}},
	{Label: "ツンツン", Keywords: []string{"べつに", "別に", "勘違い", "しないでよね", "知らない", "ふんっ", "バカ", "ばか"}},
	{Label: "怒り", Keywords: []string{"ふざけるな", "許さない", "怒", "ムカつく", "いい加減に", "うるさい", "黙れ", "！！"}},
	{Label: "喜び", Keywords: []string{"やった", "楽しい", "最高", "わーい", "嬉しい", "うれしい", "すごい"}},
	{Label: "悲しみ", Keywords: []string{"悲しい", "寂しい", "さみしい", "つらい", "辛い", "泣", "残念"}},
	{Label: "なみだめ", Keywords: []string{"うぅ", "ひどい", "ぐすっ", "ごめんなさい"}},
	{Label: "ささやき", Keywords: []string{"内緒", "ないしょ", "こっそり", "秘密", "静かに"}},
	{Label: "ヒソヒソ", Keywords: []string{"ひそひそ", "小声", "聞こえちゃう"}},
	{Label: "セクシー", Keywords: []string{"うふふ", "ねぇ", "大人の"}},
	{Label: "驚き", Keywords: []string{"えっ", "まさか", "びっくり", "本当に？", "なんで"}},
}

const (
	// PlaceholderStyle はスタイル一覧が空のときに返すラベルです。
	PlaceholderStyle = "ノーマル"
)

// normalStyleNames は「通常」スタイルとみなす名前 (大文字小文字を区別しない部分一致)。
var normalStyleNames = []string{"normal", "ノーマル", "通常"}
