package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration
		"Decoding %s":                       "%s をデコード中",
		"Decoded %d pictures from %d units": "%d ピクチャをデコードしました (%d アクセスユニット)",
		"Output saved to %s":                "出力を %s に保存しました",
		"Interrupted, shutting down...":     "中断されました。シャットダウン中...",
		"Draining decoder":                  "デコーダを排出中",

		// Session
		"Engine opened (threads %d, parse delay %d)": "エンジンを開きました (スレッド %d, 解析遅延 %d)",
		"Engine closed":                     "エンジンを閉じました",
		"Engine restarted":                  "エンジンを再起動しました",
		"Opened VVdeC %s":                   "VVdeC %s を開きました",
		"Output format change: %s":          "出力フォーマット変更: %s",
		"Output format negotiated: %s":      "出力フォーマットを確定しました: %s",
		"Copying plane %d: stride %d to %d": "プレーン %d をコピー中: ストライド %d から %d",
		"Pruned %d stale pending frames":    "古い待機フレーム %d 件を破棄しました",

		// RTP
		"Listening for RTP on %s":         "%s で RTP を待ち受け中",
		"RTP idle for %s, ending stream":  "RTP が %s 途絶えたためストリームを終了します",
		"Ignoring RTP payload type %d":    "RTP ペイロードタイプ %d を無視します",
		"Skipping invalid RTP packet: %s": "不正な RTP パケットをスキップします: %s",
		"Skipping RTP packet %d: %s":      "RTP パケット %d をスキップします: %s",

		// Warnings
		"No pending frame for offset %d (picture %d), dropping": "オフセット %d に対応するフレームがありません (ピクチャ %d)。破棄します",
		"Dropped picture %d: %s":                                "ピクチャ %d を破棄しました: %s",
		"Closing replaced engine handle failed: %s":             "置き換えたエンジンハンドルのクローズに失敗しました: %s",
		"Closing VVdeC decoder failed: %s":                      "VVdeC デコーダのクローズに失敗しました: %s",
		"RTP sequence gap %d -> %d, dropping fragment":          "RTP シーケンス欠落 %d -> %d。フラグメントを破棄します",
		"Failed to save access unit %d: %s":                     "アクセスユニット %d の保存に失敗しました: %s",
		"Failed to save preview of frame %d: %s":                "フレーム %d のプレビュー保存に失敗しました: %s",

		// Errors
		"Failed to decode: %s":       "デコードに失敗しました: %s",
		"Failed to write output: %s": "出力の書き込みに失敗しました: %s",
	})
}
