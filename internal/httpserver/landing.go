package httpserver

import "net/http"

// The landing page is a self-contained viewer: live MJPEG image, audio
// player, and a mute toggle backed by /control.
const landingHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>LANSCR</title>
<style>
body{margin:0;background:#111;color:#ddd;font-family:sans-serif}
header{display:flex;align-items:center;gap:12px;padding:8px 12px;background:#1b1b1b}
header h1{font-size:16px;margin:0}
#screen{display:block;width:100%;height:auto}
button{background:#333;color:#ddd;border:1px solid #555;padding:4px 10px;cursor:pointer}
#status{font-size:13px;color:#999}
</style>
</head>
<body>
<header>
<h1>LANSCR</h1>
<button id="muteBtn" onclick="toggleMute()">Mute</button>
<span id="status"></span>
<audio id="player" src="/audio" autoplay></audio>
</header>
<img id="screen" src="/mjpeg" alt="screen">
<script>
async function poll(){
  try{
    const r=await fetch('/control',{cache:'no-store'});
    const j=await r.json();
    document.getElementById('status').textContent=j.audioMuted?'Server audio muted':'Server audio on';
    document.getElementById('muteBtn').textContent=j.audioMuted?'Unmute':'Mute';
  }catch(e){}
}
async function toggleMute(){
  try{
    const r=await fetch('/control',{cache:'no-store'});
    const j=await r.json();
    await fetch('/control?mute='+(j.audioMuted?0:1),{cache:'no-store'});
    poll();
  }catch(e){}
}
poll();
setInterval(poll,5000);
</script>
</body>
</html>
`

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(landingHTML))
}
