// Package main provides localization for the vvdec CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":  "出力",
		"Input":   "入力",
		"Decoder": "デコーダ",
		"Debug":   "デバッグ",
		"Logging": "ログ",

		// Commands
		"Decode H.266/VVC elementary streams":        "H.266/VVC エレメンタリストリームをデコード",
		"Decode Annex-B streams to Y4M":              "Annex-B ストリームを Y4M にデコード",
		"List the access units of an Annex-B stream": "Annex-B ストリームのアクセスユニットを一覧表示",
		"Show version information":                   "バージョン情報を表示",
		"vvdec (Go) version %s":                      "vvdec (Go版) バージョン %s",
		"VVdeC library %s":                           "VVdeC ライブラリ %s",
		"VVdeC library not available":                "VVdeC ライブラリが見つかりません",

		// Output flags
		"Output Y4M path, or directory for several inputs (default: stdout)": "出力Y4Mファイルパス、複数入力時はディレクトリ（デフォルト: 標準出力）",
		"YAML configuration file":                                  "YAML設定ファイル",
		"Output execution summary to file (Markdown format)":       "実行サマリーをファイルに出力（Markdown形式）",
		"Number of inputs decoded in parallel":                     "並列にデコードする入力数",
		"Frame rate written to the Y4M header (e.g., 30000/1001)":  "Y4Mヘッダーに書き込むフレームレート（例: 30000/1001）",
		"Request tightly packed planes instead of stride metadata": "ストライド情報の代わりに詰めたプレーンを要求",
		"Stride alignment proposed to the decoder":                 "デコーダに提案するストライドのアライメント",

		// Decoder flags
		"Decoder threads (-1 = auto)":                      "デコーダのスレッド数（-1 = 自動）",
		"Parser frame delay (-1 = auto)":                   "パーサーのフレーム遅延（-1 = 自動）",
		"Keep decoding after recoverable bitstream errors": "回復可能なビットストリームエラー後もデコードを継続",
		"Verify picture hash SEI messages":                 "ピクチャハッシュSEIを検証",
		"Frame correlation mode (timestamp, sequence)":     "フレーム対応付けモード（timestamp, sequence）",
		"Offset of the first frame":                        "最初のフレームのオフセット",

		// Input flags
		"Read size in bytes":                                "読み込みサイズ（バイト）",
		"Largest access unit in bytes":                      "最大アクセスユニットサイズ（バイト）",
		"End an RTP stream after this long without packets": "パケットが途絶えてからRTPストリームを終了するまでの時間",
		"Accept only this RTP payload type (0 = any)":       "受け付けるRTPペイロードタイプ（0 = すべて）",

		// Debug flags
		"Directory for debug output":                    "デバッグ出力のディレクトリ",
		"Save a PNG preview of every n-th frame":        "n フレームごとにPNGプレビューを保存",
		"Preview width in pixels":                       "プレビューの幅（ピクセル）",
		"Save every access unit to the debug directory": "全アクセスユニットをデバッグディレクトリに保存",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Runtime messages
		"Summary saved to %s":             "サマリーを %s に保存しました",
		"Failed to write summary: %s":     "サマリーの書き込みに失敗しました: %s",
		"Split %d access units, %d bytes": "%d アクセスユニット、%d バイトに分割しました",

		// Error messages
		"Input argument is required":                         "入力引数が必要です",
		"An output directory is required for several inputs": "複数入力には出力ディレクトリが必要です",
		"Duplicate output name %s":                           "出力名 %s が重複しています",
		"%d of %d inputs failed":                             "%d / %d 件の入力が失敗しました",

		// Summary content
		"Decode Summary":  "デコードサマリー",
		"Generated":       "生成日時",
		"Settings":        "設定",
		"Streams":         "ストリーム",
		"Item":            "項目",
		"Value":           "値",
		"Engine":          "エンジン",
		"Threads":         "スレッド数",
		"Parse Delay":     "解析遅延",
		"Correlation":     "対応付け",
		"Error Tolerance": "エラー耐性",
		"Auto":            "自動",
		"On":              "有効",

		// Streams table
		"Units":                "ユニット数",
		"Size":                 "サイズ",
		"Frames":               "フレーム数",
		"Dropped":              "破棄",
		"Format":               "フォーマット",
		"Time":                 "時間",
		"Failed":               "失敗",
		"Total":                "合計",
		"units":                "ユニット",
		"frames":               "フレーム",
		"failed":               "失敗",
		"format changes":       "回のフォーマット変更",
		"restarts":             "回の再起動",
		"unsupported pictures": "件の非対応ピクチャ",
		"planes copied":        "プレーンをコピー",
	})
}
