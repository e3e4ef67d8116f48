package viewer

import "github.com/brensch/snek/game"

func cellClass(b byte) string {
	switch b {
	case game.CellHead:
		return "head"
	case game.CellBody:
		return "body"
	case game.CellFood:
		return "food"
	default:
		return "empty"
	}
}

type pageData struct {
	Snapshot game.Snapshot
	Grid     [][]byte
	Params   gameParams
	Query    string
}

const boardPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>snake {{.Params.Seed}}</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; }
table.board { border-collapse: collapse; border: 2px solid #555; }
table.board td { width: 18px; height: 18px; padding: 0; }
td.empty { background: #1b1b1b; }
td.body { background: #3c9; }
td.head { background: #7fe; }
td.food { background: #e54; }
#status { margin-top: 8px; }
</style>
</head>
<body>
<h1>snake</h1>
<div id="meta" data-seed="{{.Params.Seed}}" data-size="{{.Snapshot.Size}}" data-policy="{{.Params.Policy}}">
seed {{.Params.Seed}} &middot; {{.Snapshot.Size}}&times;{{.Snapshot.Size}} &middot; policy {{.Params.Policy}}
</div>
<table class="board">
{{- range $y, $row := .Grid}}
<tr>{{range $x, $c := $row}}<td id="c{{$x}}_{{$y}}" class="{{cellClass $c}}"></td>{{end}}</tr>
{{- end}}
</table>
<div id="status">turn <span id="turn">{{.Snapshot.Turn}}</span> &middot; length <span id="length">{{.Snapshot.Length}}</span> &middot; <span id="state">{{if .Snapshot.Alive}}running{{else}}{{.Snapshot.Cause}}{{end}}</span></div>
<script>
(function() {
  const size = {{.Snapshot.Size}};
  const proto = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(proto + location.host + "/ws?" + {{.Query}});
  const keys = {ArrowUp: "up", ArrowDown: "down", ArrowLeft: "left", ArrowRight: "right", w: "up", s: "down", a: "left", d: "right"};
  document.addEventListener("keydown", e => {
    const dir = keys[e.key];
    if (dir && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify({type: "turn", data: dir}));
  });
  function paint(f) {
    for (let y = 0; y < size; y++) for (let x = 0; x < size; x++) document.getElementById("c" + x + "_" + y).className = "empty";
    document.getElementById("c" + f.food.x + "_" + f.food.y).className = "food";
    f.body.forEach((p, i) => {
      const el = document.getElementById("c" + p.x + "_" + p.y);
      if (el) el.className = i === 0 ? "head" : "body";
    });
    document.getElementById("turn").textContent = f.turn;
    document.getElementById("length").textContent = f.body.length;
  }
  ws.onmessage = m => {
    const ev = JSON.parse(m.data);
    if (ev.type === "frame") paint(ev.data);
    if (ev.type === "game_end") document.getElementById("state").textContent = ev.data.cause;
  };
})();
</script>
</body>
</html>
`
