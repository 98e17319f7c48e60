package telegram

import tele "gopkg.in/telebot.v4"

// replyMarkup converts rows of button labels into a persistent reply
// keyboard. A nil menu returns nil, leaving the current keyboard as is.
func replyMarkup(menu [][]string) *tele.ReplyMarkup {
	if len(menu) == 0 {
		return nil
	}
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	rows := make([]tele.Row, 0, len(menu))
	for _, labels := range menu {
		row := make(tele.Row, 0, len(labels))
		for _, label := range labels {
			row = append(row, markup.Text(label))
		}
		rows = append(rows, row)
	}
	markup.Reply(rows...)
	return markup
}
