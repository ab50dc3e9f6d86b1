package refresher

import (
	"github.com/angeloszaimis/proxy-dashboard/internal/status"
	"github.com/angeloszaimis/proxy-dashboard/internal/view"
)

func (r *Refresher) render(snap status.Snapshot) {
	msgs := r.messages

	if snap.LastUpdate != nil && *snap.LastUpdate != "" {
		r.view.SetUpdateTime(*snap.LastUpdate)
	} else {
		r.view.SetUpdateTime(msgs.Unknown)
	}

	best := snap.BestURL()
	if best != "" {
		r.view.SetBestProxy(best, view.ClassNone)
	} else {
		r.view.SetBestProxy(msgs.NoProxy, view.ClassError)
	}

	r.view.ReplaceRows(buildRows(snap.AllResults, best, msgs))
}

func (r *Refresher) renderFailure() {
	r.view.SetUpdateTime(r.messages.LoadFailed)
	r.view.SetBestProxyText(r.messages.LoadFailed)
}

// buildRows lays out results in server order. An empty best never matches.
func buildRows(results []status.ProxyResult, best string, msgs view.Messages) []view.Row {
	if len(results) == 0 {
		return []view.Row{{
			Cells: []view.Cell{{Text: msgs.NoData, ColSpan: view.Columns, Centered: true}},
		}}
	}

	rows := make([]view.Row, 0, len(results))
	for _, result := range results {
		delay := msgs.NotAvailable
		if result.Delay.Valid() {
			delay = result.Delay.String()
		}

		row := view.Row{
			Cells: []view.Cell{
				{Text: result.URL},
				{Text: result.Status, Class: statusClass(result)},
				{Text: delay},
			},
		}
		if best != "" && result.URL == best {
			row.Class = view.ClassBest
		}

		rows = append(rows, row)
	}

	return rows
}

func statusClass(result status.ProxyResult) view.Class {
	switch {
	case result.Status == status.StatusOK:
		return view.ClassNone
	case result.IsError():
		return view.ClassError
	default:
		return view.ClassSlow
	}
}
